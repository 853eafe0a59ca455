package packet

import (
	"fmt"

	"github.com/oldscape/server/internal/buf"
	"github.com/oldscape/server/internal/text"
)

// InitializePlayer tells the client its own player index.
type InitializePlayer struct {
	gamePacket
	Member bool
	Index  uint16
}

func (*InitializePlayer) Type() Type { return TypeInitializePlayer }

func (p *InitializePlayer) Encode(w *buf.Writer) {
	w.WriteU8T(boolByte(p.Member), buf.Add)
	w.WriteU16T(p.Index, buf.LittleEndian, buf.Add)
}

func (p *InitializePlayer) Decode(r *buf.Reader) error {
	p.Member = r.ReadU8T(buf.Add) == 1
	p.Index = r.ReadU16T(buf.LittleEndian, buf.Add)
	return r.Err()
}

// LoadMapRegion centres the client's loaded area on an 8x8 chunk.
type LoadMapRegion struct {
	gamePacket
	ChunkX uint16
	ChunkY uint16
}

func (*LoadMapRegion) Type() Type { return TypeLoadMapRegion }

func (p *LoadMapRegion) Encode(w *buf.Writer) {
	w.WriteU16T(p.ChunkX, buf.BigEndian, buf.Add)
	w.WriteU16(p.ChunkY)
}

func (p *LoadMapRegion) Decode(r *buf.Reader) error {
	p.ChunkX = r.ReadU16T(buf.BigEndian, buf.Add)
	p.ChunkY = r.ReadU16()
	return r.Err()
}

type GameMessage struct {
	gamePacket
	Message string
}

func (*GameMessage) Type() Type { return TypeGameMessage }

func (p *GameMessage) Encode(w *buf.Writer) { w.WriteString(p.Message) }

func (p *GameMessage) Decode(r *buf.Reader) error {
	p.Message = r.ReadString()
	return r.Err()
}

// SidebarInterface assigns an interface to one of the sidebar tabs.
type SidebarInterface struct {
	gamePacket
	Interface uint16
	Tab       byte
}

func (*SidebarInterface) Type() Type { return TypeSidebarInterface }

func (p *SidebarInterface) Encode(w *buf.Writer) {
	w.WriteU16(p.Interface)
	w.WriteU8T(p.Tab, buf.Add)
}

func (p *SidebarInterface) Decode(r *buf.Reader) error {
	p.Interface = r.ReadU16()
	p.Tab = r.ReadU8T(buf.Add)
	return r.Err()
}

type UpdateSkill struct {
	gamePacket
	Skill      byte
	Experience uint32
	Level      byte
}

func (*UpdateSkill) Type() Type { return TypeUpdateSkill }

func (p *UpdateSkill) Encode(w *buf.Writer) {
	w.WriteU8(p.Skill)
	w.WriteU32O(p.Experience, buf.MiddleEndian)
	w.WriteU8(p.Level)
}

func (p *UpdateSkill) Decode(r *buf.Reader) error {
	p.Skill = r.ReadU8()
	p.Experience = r.ReadU32O(buf.MiddleEndian)
	p.Level = r.ReadU8()
	return r.Err()
}

// ConfigSmall sets a client variable that fits in a byte.
type ConfigSmall struct {
	gamePacket
	ID    uint16
	Value byte
}

func (*ConfigSmall) Type() Type { return TypeConfigSmall }

func (p *ConfigSmall) Encode(w *buf.Writer) {
	w.WriteU16T(p.ID, buf.LittleEndian, buf.Plain)
	w.WriteU8(p.Value)
}

func (p *ConfigSmall) Decode(r *buf.Reader) error {
	p.ID = r.ReadU16T(buf.LittleEndian, buf.Plain)
	p.Value = r.ReadU8()
	return r.Err()
}

type ConfigLarge struct {
	gamePacket
	ID    uint16
	Value uint32
}

func (*ConfigLarge) Type() Type { return TypeConfigLarge }

func (p *ConfigLarge) Encode(w *buf.Writer) {
	w.WriteU16T(p.ID, buf.LittleEndian, buf.Plain)
	w.WriteU32O(p.Value, buf.MiddleEndian)
}

func (p *ConfigLarge) Decode(r *buf.Reader) error {
	p.ID = r.ReadU16T(buf.LittleEndian, buf.Plain)
	p.Value = r.ReadU32O(buf.MiddleEndian)
	return r.Err()
}

type SetInterfaceText struct {
	gamePacket
	Text      string
	Interface uint16
}

func (*SetInterfaceText) Type() Type { return TypeSetInterfaceText }

func (p *SetInterfaceText) Encode(w *buf.Writer) {
	w.WriteString(p.Text)
	w.WriteU16T(p.Interface, buf.BigEndian, buf.Add)
}

func (p *SetInterfaceText) Decode(r *buf.Reader) error {
	p.Text = r.ReadString()
	p.Interface = r.ReadU16T(buf.BigEndian, buf.Add)
	return r.Err()
}

type OpenInterface struct {
	gamePacket
	Interface uint16
}

func (*OpenInterface) Type() Type { return TypeOpenInterface }

func (p *OpenInterface) Encode(w *buf.Writer) { w.WriteU16(p.Interface) }

func (p *OpenInterface) Decode(r *buf.Reader) error {
	p.Interface = r.ReadU16()
	return r.Err()
}

type CloseInterfaces struct {
	gamePacket
	empty
}

func (*CloseInterfaces) Type() Type { return TypeCloseInterfaces }

// ContainerItem is one slot of an item container. Item 0 is an empty slot.
type ContainerItem struct {
	Item   uint16
	Amount uint32
}

// largeAmount marks a slot whose amount follows as a full 32-bit value.
const largeAmount = 255

// UpdateItemContainer replaces every slot shown by an item interface.
type UpdateItemContainer struct {
	gamePacket
	Interface uint16
	Items     []ContainerItem
}

func (*UpdateItemContainer) Type() Type { return TypeUpdateItemContainer }

func (p *UpdateItemContainer) Encode(w *buf.Writer) {
	w.WriteU16(p.Interface)
	w.WriteU16(uint16(len(p.Items)))
	for _, it := range p.Items {
		if it.Amount >= largeAmount {
			w.WriteU8(largeAmount)
			w.WriteU32O(it.Amount, buf.InverseMiddleEndian)
		} else {
			w.WriteU8(byte(it.Amount))
		}
		w.WriteU16T(it.Item, buf.LittleEndian, buf.Add)
	}
}

func (p *UpdateItemContainer) Decode(r *buf.Reader) error {
	p.Interface = r.ReadU16()
	n := int(r.ReadU16())
	if err := r.Err(); err != nil {
		return err
	}
	if n*3 > r.Remaining() {
		return fmt.Errorf("%w: %d slots in %d bytes", ErrMalformed, n, r.Remaining())
	}
	p.Items = make([]ContainerItem, n)
	for i := range p.Items {
		amount := uint32(r.ReadU8())
		if amount == largeAmount {
			amount = r.ReadU32O(buf.InverseMiddleEndian)
		}
		p.Items[i] = ContainerItem{Item: r.ReadU16T(buf.LittleEndian, buf.Add), Amount: amount}
	}
	return r.Err()
}

type RunEnergy struct {
	gamePacket
	Energy byte
}

func (*RunEnergy) Type() Type { return TypeRunEnergy }

func (p *RunEnergy) Encode(w *buf.Writer) { w.WriteU8(p.Energy) }

func (p *RunEnergy) Decode(r *buf.Reader) error {
	p.Energy = r.ReadU8()
	return r.Err()
}

// PlayerOption sets a right-click option shown on other players.
type PlayerOption struct {
	gamePacket
	Slot   byte
	Top    bool
	Option string
}

func (*PlayerOption) Type() Type { return TypePlayerOption }

func (p *PlayerOption) Encode(w *buf.Writer) {
	w.WriteU8T(p.Slot, buf.Negate)
	w.WriteU8T(boolByte(p.Top), buf.Add)
	w.WriteString(p.Option)
}

func (p *PlayerOption) Decode(r *buf.Reader) error {
	p.Slot = r.ReadU8T(buf.Negate)
	p.Top = r.ReadU8T(buf.Add) == 1
	p.Option = r.ReadString()
	return r.Err()
}

// Friend server states.
const (
	FriendServerLoading    = 0
	FriendServerConnecting = 1
	FriendServerOnline     = 2
)

type FriendServerStatus struct {
	gamePacket
	Status byte
}

func (*FriendServerStatus) Type() Type { return TypeFriendServerStatus }

func (p *FriendServerStatus) Encode(w *buf.Writer) { w.WriteU8(p.Status) }

func (p *FriendServerStatus) Decode(r *buf.Reader) error {
	p.Status = r.ReadU8()
	return r.Err()
}

// FriendStatus reports the world a friend is on; world 0 is offline.
type FriendStatus struct {
	gamePacket
	Name  string
	World byte
}

func (*FriendStatus) Type() Type { return TypeFriendStatus }

func (p *FriendStatus) Encode(w *buf.Writer) {
	writeName(w, p.Name)
	w.WriteU8(p.World)
}

func (p *FriendStatus) Decode(r *buf.Reader) error {
	var err error
	if p.Name, err = readName(r); err != nil {
		return err
	}
	p.World = r.ReadU8()
	return r.Err()
}

type PrivateMessageReceived struct {
	gamePacket
	Sender    string
	MessageID uint32
	Rights    byte
	Message   string
}

func (*PrivateMessageReceived) Type() Type { return TypePrivateMessageReceived }

func (p *PrivateMessageReceived) Encode(w *buf.Writer) {
	writeName(w, p.Sender)
	w.WriteU32(p.MessageID)
	w.WriteU8(p.Rights)
	w.WriteBytes(text.Compress(p.Message))
}

func (p *PrivateMessageReceived) Decode(r *buf.Reader) error {
	var err error
	if p.Sender, err = readName(r); err != nil {
		return err
	}
	p.MessageID = r.ReadU32()
	p.Rights = r.ReadU8()
	packed := r.ReadRest()
	p.Message = text.Decompress(packed, len(packed))
	return r.Err()
}

type Logout struct {
	gamePacket
	empty
}

func (*Logout) Type() Type { return TypeLogout }

// SystemUpdate starts the client's reboot countdown, in ticks.
type SystemUpdate struct {
	gamePacket
	Ticks uint16
}

func (*SystemUpdate) Type() Type { return TypeSystemUpdate }

func (p *SystemUpdate) Encode(w *buf.Writer) { w.WriteU16T(p.Ticks, buf.LittleEndian, buf.Plain) }

func (p *SystemUpdate) Decode(r *buf.Reader) error {
	p.Ticks = r.ReadU16T(buf.LittleEndian, buf.Plain)
	return r.Err()
}

type ChatSettings struct {
	gamePacket
	Public, Private, Trade byte
}

func (*ChatSettings) Type() Type { return TypeChatSettings }

func (p *ChatSettings) Encode(w *buf.Writer) {
	w.WriteU8(p.Public)
	w.WriteU8(p.Private)
	w.WriteU8(p.Trade)
}

func (p *ChatSettings) Decode(r *buf.Reader) error {
	p.Public = r.ReadU8()
	p.Private = r.ReadU8()
	p.Trade = r.ReadU8()
	return r.Err()
}
