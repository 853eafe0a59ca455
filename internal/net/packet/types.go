package packet

import "fmt"

// Stage is the connection phase a packet belongs to.
type Stage uint8

const (
	StageHandshake Stage = iota
	StageGameplay
)

func (s Stage) String() string {
	switch s {
	case StageHandshake:
		return "Handshake"
	case StageGameplay:
		return "Gameplay"
	default:
		return fmt.Sprintf("Stage(%d)", uint8(s))
	}
}

// Direction says which peer sends a packet.
type Direction uint8

const (
	Serverbound Direction = iota
	Clientbound
)

func (d Direction) String() string {
	switch d {
	case Serverbound:
		return "Serverbound"
	case Clientbound:
		return "Clientbound"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// ID is the wire identity of a packet: its opcode within a stage and direction.
type ID struct {
	Opcode    byte
	Stage     Stage
	Direction Direction
}

func (id ID) String() string {
	return fmt.Sprintf("%s/%s/%d", id.Stage, id.Direction, id.Opcode)
}

// FrameKind selects how a payload's length is carried on the wire.
type FrameKind uint8

const (
	// FrameFixed payloads have a length known to both sides.
	FrameFixed FrameKind = iota
	// FrameVarByte payloads are prefixed by a u8 length.
	FrameVarByte
	// FrameVarShort payloads are prefixed by a big-endian u16 length.
	FrameVarShort
	// FrameNone payloads run to the end of the received data.
	FrameNone
)

// Framing is a frame kind plus the size of fixed frames.
type Framing struct {
	Kind FrameKind
	Size int
}

func Fixed(n int) Framing { return Framing{Kind: FrameFixed, Size: n} }

var (
	VarByte  = Framing{Kind: FrameVarByte}
	VarShort = Framing{Kind: FrameVarShort}
	None     = Framing{Kind: FrameNone}
)

// MaxSize is the largest payload the framing can carry.
func (f Framing) MaxSize() int {
	switch f.Kind {
	case FrameFixed:
		return f.Size
	case FrameVarByte:
		return 0xFF
	case FrameVarShort:
		return 0xFFFF
	default:
		return -1
	}
}

func (f Framing) String() string {
	switch f.Kind {
	case FrameFixed:
		return fmt.Sprintf("Fixed(%d)", f.Size)
	case FrameVarByte:
		return "VarByte"
	case FrameVarShort:
		return "VarShort"
	case FrameNone:
		return "None"
	default:
		return fmt.Sprintf("Framing(%d)", f.Kind)
	}
}

// Type names a packet structure independent of its opcode.
type Type uint16

const (
	TypeInvalid Type = iota

	// handshake, serverbound
	TypeHandshakeHello
	TypeUpdateRequest
	TypeLoginRequest
	TypeReconnectRequest

	// handshake, clientbound
	TypeHandshakeResponse
	TypeLoginAccepted
	TypeLoginInvalidCredentials
	TypeLoginAccountDisabled
	TypeLoginAlreadyOnline
	TypeLoginGameUpdated
	TypeLoginServerFull
	TypeLoginServerOffline

	// gameplay, serverbound
	TypeKeepAlive
	TypeFocusChange
	TypePublicChat
	TypeMouseClick
	TypeCameraMove
	TypeRegionChange
	TypeRegionLoaded
	TypeWalkHere
	TypeMinimapWalk
	TypeWalkOnCommand
	TypeCharacterDesign
	TypeCommand
	TypeButtonClick
	TypeCloseInterface
	TypeDialogueContinue
	TypeEquipItem
	TypeItemOption1
	TypeDropItem
	TypeMoveItem
	TypePickupItem
	TypeNpcOption1
	TypeObjectOption1
	TypeAddFriend
	TypeRemoveFriend
	TypeAddIgnore
	TypeRemoveIgnore
	TypePrivateMessage
	TypePrivacyOptions
	TypeReportAbuse

	// gameplay, clientbound
	TypeInitializePlayer
	TypeLoadMapRegion
	TypePlayerSynchronization
	TypeNpcSynchronization
	TypeGameMessage
	TypeSidebarInterface
	TypeUpdateSkill
	TypeConfigSmall
	TypeConfigLarge
	TypeSetInterfaceText
	TypeOpenInterface
	TypeCloseInterfaces
	TypeUpdateItemContainer
	TypeRunEnergy
	TypePlayerOption
	TypeFriendServerStatus
	TypeFriendStatus
	TypePrivateMessageReceived
	TypeLogout
	TypeSystemUpdate
	TypeChatSettings

	typeCount
)

var typeNames = [typeCount]string{
	TypeInvalid:                 "Invalid",
	TypeHandshakeHello:          "HandshakeHello",
	TypeUpdateRequest:           "UpdateRequest",
	TypeLoginRequest:            "LoginRequest",
	TypeReconnectRequest:        "ReconnectRequest",
	TypeHandshakeResponse:       "HandshakeResponse",
	TypeLoginAccepted:           "LoginAccepted",
	TypeLoginInvalidCredentials: "LoginInvalidCredentials",
	TypeLoginAccountDisabled:    "LoginAccountDisabled",
	TypeLoginAlreadyOnline:      "LoginAlreadyOnline",
	TypeLoginGameUpdated:        "LoginGameUpdated",
	TypeLoginServerFull:         "LoginServerFull",
	TypeLoginServerOffline:      "LoginServerOffline",
	TypeKeepAlive:               "KeepAlive",
	TypeFocusChange:             "FocusChange",
	TypePublicChat:              "PublicChat",
	TypeMouseClick:              "MouseClick",
	TypeCameraMove:              "CameraMove",
	TypeRegionChange:            "RegionChange",
	TypeRegionLoaded:            "RegionLoaded",
	TypeWalkHere:                "WalkHere",
	TypeMinimapWalk:             "MinimapWalk",
	TypeWalkOnCommand:           "WalkOnCommand",
	TypeCharacterDesign:         "CharacterDesign",
	TypeCommand:                 "Command",
	TypeButtonClick:             "ButtonClick",
	TypeCloseInterface:          "CloseInterface",
	TypeDialogueContinue:        "DialogueContinue",
	TypeEquipItem:               "EquipItem",
	TypeItemOption1:             "ItemOption1",
	TypeDropItem:                "DropItem",
	TypeMoveItem:                "MoveItem",
	TypePickupItem:              "PickupItem",
	TypeNpcOption1:              "NpcOption1",
	TypeObjectOption1:           "ObjectOption1",
	TypeAddFriend:               "AddFriend",
	TypeRemoveFriend:            "RemoveFriend",
	TypeAddIgnore:               "AddIgnore",
	TypeRemoveIgnore:            "RemoveIgnore",
	TypePrivateMessage:          "PrivateMessage",
	TypePrivacyOptions:          "PrivacyOptions",
	TypeReportAbuse:             "ReportAbuse",
	TypeInitializePlayer:        "InitializePlayer",
	TypeLoadMapRegion:           "LoadMapRegion",
	TypePlayerSynchronization:   "PlayerSynchronization",
	TypeNpcSynchronization:      "NpcSynchronization",
	TypeGameMessage:             "GameMessage",
	TypeSidebarInterface:        "SidebarInterface",
	TypeUpdateSkill:             "UpdateSkill",
	TypeConfigSmall:             "ConfigSmall",
	TypeConfigLarge:             "ConfigLarge",
	TypeSetInterfaceText:        "SetInterfaceText",
	TypeOpenInterface:           "OpenInterface",
	TypeCloseInterfaces:         "CloseInterfaces",
	TypeUpdateItemContainer:     "UpdateItemContainer",
	TypeRunEnergy:               "RunEnergy",
	TypePlayerOption:            "PlayerOption",
	TypeFriendServerStatus:      "FriendServerStatus",
	TypeFriendStatus:            "FriendStatus",
	TypePrivateMessageReceived:  "PrivateMessageReceived",
	TypeLogout:                  "Logout",
	TypeSystemUpdate:            "SystemUpdate",
	TypeChatSettings:            "ChatSettings",
}

func (t Type) String() string {
	if t < typeCount {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", uint16(t))
}

// Types lists every valid packet type.
func Types() []Type {
	types := make([]Type, 0, typeCount-1)
	for t := TypeInvalid + 1; t < typeCount; t++ {
		types = append(types, t)
	}
	return types
}
