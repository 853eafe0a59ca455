// Package packet defines the wire catalogue of the 317 protocol: packet
// types, their opcodes and framing, and the field layout of every payload.
package packet

import (
	"fmt"

	"github.com/oldscape/server/internal/buf"
)

// Packet is implemented only by the payload types of this package.
type Packet interface {
	Type() Type
	// Encode appends the payload, without opcode or length prefix.
	Encode(w *buf.Writer)
	// Decode fills the packet from exactly one frame's payload.
	Decode(r *buf.Reader) error
	sealed()
}

// GamePacket is a gameplay-stage payload. Handshake and login payloads do not
// implement it.
type GamePacket interface {
	Packet
	gameplay()
}

// New returns a zero payload of the given type.
func New(t Type) (Packet, error) {
	var p Packet
	switch t {
	case TypeHandshakeHello:
		p = &HandshakeHello{}
	case TypeUpdateRequest:
		p = &UpdateRequest{}
	case TypeLoginRequest:
		p = &LoginRequest{}
	case TypeReconnectRequest:
		p = &ReconnectRequest{}
	case TypeHandshakeResponse:
		p = &HandshakeResponse{}
	case TypeLoginAccepted:
		p = &LoginAccepted{}
	case TypeLoginInvalidCredentials:
		p = &LoginRejected{Reason: RejectInvalidCredentials}
	case TypeLoginAccountDisabled:
		p = &LoginRejected{Reason: RejectAccountDisabled}
	case TypeLoginAlreadyOnline:
		p = &LoginRejected{Reason: RejectAlreadyOnline}
	case TypeLoginGameUpdated:
		p = &LoginRejected{Reason: RejectGameUpdated}
	case TypeLoginServerFull:
		p = &LoginRejected{Reason: RejectServerFull}
	case TypeLoginServerOffline:
		p = &LoginRejected{Reason: RejectServerOffline}
	case TypeKeepAlive:
		p = &KeepAlive{}
	case TypeFocusChange:
		p = &FocusChange{}
	case TypePublicChat:
		p = &PublicChat{}
	case TypeMouseClick:
		p = &MouseClick{}
	case TypeCameraMove:
		p = &CameraMove{}
	case TypeRegionChange:
		p = &RegionChange{}
	case TypeRegionLoaded:
		p = &RegionLoaded{}
	case TypeWalkHere:
		p = &WalkHere{}
	case TypeMinimapWalk:
		p = &MinimapWalk{}
	case TypeWalkOnCommand:
		p = &WalkOnCommand{}
	case TypeCharacterDesign:
		p = &CharacterDesign{}
	case TypeCommand:
		p = &Command{}
	case TypeButtonClick:
		p = &ButtonClick{}
	case TypeCloseInterface:
		p = &CloseInterface{}
	case TypeDialogueContinue:
		p = &DialogueContinue{}
	case TypeEquipItem:
		p = &EquipItem{}
	case TypeItemOption1:
		p = &ItemOption1{}
	case TypeDropItem:
		p = &DropItem{}
	case TypeMoveItem:
		p = &MoveItem{}
	case TypePickupItem:
		p = &PickupItem{}
	case TypeNpcOption1:
		p = &NpcOption1{}
	case TypeObjectOption1:
		p = &ObjectOption1{}
	case TypeAddFriend:
		p = &AddFriend{}
	case TypeRemoveFriend:
		p = &RemoveFriend{}
	case TypeAddIgnore:
		p = &AddIgnore{}
	case TypeRemoveIgnore:
		p = &RemoveIgnore{}
	case TypePrivateMessage:
		p = &PrivateMessage{}
	case TypePrivacyOptions:
		p = &PrivacyOptions{}
	case TypeReportAbuse:
		p = &ReportAbuse{}
	case TypeInitializePlayer:
		p = &InitializePlayer{}
	case TypeLoadMapRegion:
		p = &LoadMapRegion{}
	case TypePlayerSynchronization:
		p = &PlayerSynchronization{}
	case TypeNpcSynchronization:
		p = &NpcSynchronization{}
	case TypeGameMessage:
		p = &GameMessage{}
	case TypeSidebarInterface:
		p = &SidebarInterface{}
	case TypeUpdateSkill:
		p = &UpdateSkill{}
	case TypeConfigSmall:
		p = &ConfigSmall{}
	case TypeConfigLarge:
		p = &ConfigLarge{}
	case TypeSetInterfaceText:
		p = &SetInterfaceText{}
	case TypeOpenInterface:
		p = &OpenInterface{}
	case TypeCloseInterfaces:
		p = &CloseInterfaces{}
	case TypeUpdateItemContainer:
		p = &UpdateItemContainer{}
	case TypeRunEnergy:
		p = &RunEnergy{}
	case TypePlayerOption:
		p = &PlayerOption{}
	case TypeFriendServerStatus:
		p = &FriendServerStatus{}
	case TypeFriendStatus:
		p = &FriendStatus{}
	case TypePrivateMessageReceived:
		p = &PrivateMessageReceived{}
	case TypeLogout:
		p = &Logout{}
	case TypeSystemUpdate:
		p = &SystemUpdate{}
	case TypeChatSettings:
		p = &ChatSettings{}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
	return p, nil
}

// empty is embedded by payloads with no fields.
type empty struct{}

func (empty) Encode(*buf.Writer)         {}
func (empty) Decode(r *buf.Reader) error { return r.Err() }

// sealedPacket is embedded by every handshake payload.
type sealedPacket struct{}

func (sealedPacket) sealed() {}

// gamePacket is embedded by every gameplay payload.
type gamePacket struct{ sealedPacket }

func (gamePacket) gameplay() {}
