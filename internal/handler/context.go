package handler

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/oldscape/server/internal/component"
	"github.com/oldscape/server/internal/core/ecs"
	"github.com/oldscape/server/internal/core/event"
	"github.com/oldscape/server/internal/net/packet"
	"github.com/oldscape/server/internal/scripting"
	"github.com/oldscape/server/internal/world"
)

// Client is the part of a session the handlers talk to.
type Client interface {
	Send(p packet.Packet)
	Close()
}

// Clients finds the connection behind a player's session.
type Clients interface {
	Client(sessionID uint64) (Client, bool)
}

// Walker answers whether a tile can be stepped on.
type Walker interface {
	Walkable(p component.Position) bool
}

// Deps holds shared dependencies injected into all packet handlers.
type Deps struct {
	World     *world.State
	Clients   Clients
	Collision Walker            // nil = everything walkable
	Scripting *scripting.Engine // nil = built-in commands only
	Bus       *event.Bus
	WorldID   int
	Log       *zap.Logger

	messageID uint32 // last private message id
}

// Context is one packet's worth of handler input.
type Context struct {
	Client Client
	Player ecs.EntityID
	Deps   *Deps
}

// Message sends a line to the player's chat box.
func (c *Context) Message(format string, args ...any) {
	if len(args) > 0 {
		format = fmt.Sprintf(format, args...)
	}
	c.Client.Send(&packet.GameMessage{Message: format})
}

// HandlerFunc is the callback signature for packet handlers.
type HandlerFunc func(ctx *Context, p packet.GamePacket)

// Dispatcher maps gameplay packet types to handlers.
type Dispatcher struct {
	handlers map[packet.Type]HandlerFunc
	ignored  map[packet.Type]bool
	log      *zap.Logger
}

func NewDispatcher(log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[packet.Type]HandlerFunc),
		ignored:  make(map[packet.Type]bool),
		log:      log,
	}
}

// Register maps a packet type to a handler.
func (d *Dispatcher) Register(t packet.Type, fn HandlerFunc) {
	d.handlers[t] = fn
}

// Ignore marks packet types that need no handling.
func (d *Dispatcher) Ignore(types ...packet.Type) {
	for _, t := range types {
		d.ignored[t] = true
	}
}

// on registers a handler typed to its concrete packet.
func on[T packet.GamePacket](d *Dispatcher, fn func(ctx *Context, p T)) {
	var zero T
	d.Register(zero.Type(), func(ctx *Context, p packet.GamePacket) {
		fn(ctx, p.(T))
	})
}

// Handles reports whether a type has a handler or is deliberately ignored.
func (d *Dispatcher) Handles(t packet.Type) bool {
	_, ok := d.handlers[t]
	return ok || d.ignored[t]
}

// Dispatch calls the handler for p. Unknown types are logged and dropped.
func (d *Dispatcher) Dispatch(ctx *Context, p packet.GamePacket) error {
	t := p.Type()
	fn, ok := d.handlers[t]
	if !ok {
		if !d.ignored[t] {
			d.log.Debug("unhandled packet", zap.Stringer("type", t))
		}
		return nil
	}
	return d.safeCall(fn, ctx, p)
}

// safeCall executes a handler with panic recovery to prevent a single
// bad packet from crashing the entire game loop.
func (d *Dispatcher) safeCall(fn HandlerFunc, ctx *Context, p packet.GamePacket) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			d.log.Error("handler panic recovered",
				zap.Stringer("type", p.Type()),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("handler panic for %s: %v", p.Type(), rec)
		}
	}()
	fn(ctx, p)
	return nil
}

// RegisterAll registers all gameplay packet handlers.
func RegisterAll(d *Dispatcher) {
	d.Ignore(
		packet.TypeKeepAlive,
		packet.TypeFocusChange,
		packet.TypeMouseClick,
		packet.TypeCameraMove,
		packet.TypeRegionChange,
		packet.TypeRegionLoaded,
		packet.TypeCloseInterface,
	)

	// Movement
	on(d, func(ctx *Context, p *packet.WalkHere) { HandleWalk(ctx, &p.Walk) })
	on(d, func(ctx *Context, p *packet.MinimapWalk) { HandleWalk(ctx, &p.Walk) })
	on(d, func(ctx *Context, p *packet.WalkOnCommand) { HandleWalk(ctx, &p.Walk) })

	// Chat
	on(d, HandlePublicChat)
	on(d, HandleCommand)

	// Interfaces
	on(d, HandleButtonClick)
	on(d, HandleCharacterDesign)
	on(d, HandleDialogueContinue)

	// Interactions
	on(d, HandleEquipItem)
	on(d, HandleItemOption)
	on(d, HandleDropItem)
	on(d, HandleMoveItem)
	on(d, HandlePickupItem)
	on(d, HandleNpcOption)
	on(d, HandleObjectOption)

	// Social
	on(d, HandleAddFriend)
	on(d, HandleRemoveFriend)
	on(d, HandleAddIgnore)
	on(d, HandleRemoveIgnore)
	on(d, HandlePrivateMessage)
	on(d, HandlePrivacyOptions)
	on(d, HandleReportAbuse)
}
