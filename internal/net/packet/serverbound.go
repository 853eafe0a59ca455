package packet

import (
	"fmt"

	"github.com/oldscape/server/internal/buf"
	"github.com/oldscape/server/internal/text"
)

func writeName(w *buf.Writer, name string) {
	w.WriteU64(text.EncodeBase37(name))
}

func readName(r *buf.Reader) (string, error) {
	v := r.ReadU64()
	if err := r.Err(); err != nil {
		return "", err
	}
	name, err := text.DecodeBase37(v)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return name, nil
}

type KeepAlive struct {
	gamePacket
	empty
}

func (*KeepAlive) Type() Type { return TypeKeepAlive }

type RegionLoaded struct {
	gamePacket
	empty
}

func (*RegionLoaded) Type() Type { return TypeRegionLoaded }

type CloseInterface struct {
	gamePacket
	empty
}

func (*CloseInterface) Type() Type { return TypeCloseInterface }

// FocusChange reports the client window gaining or losing focus.
type FocusChange struct {
	gamePacket
	Focused bool
}

func (*FocusChange) Type() Type { return TypeFocusChange }

func (p *FocusChange) Encode(w *buf.Writer) { w.WriteBool(p.Focused) }

func (p *FocusChange) Decode(r *buf.Reader) error {
	p.Focused = r.ReadU8() == 1
	return r.Err()
}

// PublicChat is a chat line said aloud. The text is compressed and sent in
// reverse byte order with each byte offset by 128.
type PublicChat struct {
	gamePacket
	Effects byte
	Color   byte
	Message string
}

func (*PublicChat) Type() Type { return TypePublicChat }

func (p *PublicChat) Encode(w *buf.Writer) {
	w.WriteU8T(p.Effects, buf.Subtract)
	w.WriteU8T(p.Color, buf.Subtract)
	w.WriteBytesReverse(text.Compress(p.Message), buf.Add)
}

func (p *PublicChat) Decode(r *buf.Reader) error {
	p.Effects = r.ReadU8T(buf.Subtract)
	p.Color = r.ReadU8T(buf.Subtract)
	if r.Err() != nil {
		return r.Err()
	}
	packed := make([]byte, r.Remaining())
	r.ReadBytesReverse(packed, buf.Add)
	p.Message = text.Decompress(packed, len(packed))
	return r.Err()
}

type MouseClick struct {
	gamePacket
	Value uint32
}

func (*MouseClick) Type() Type { return TypeMouseClick }

func (p *MouseClick) Encode(w *buf.Writer) { w.WriteU32(p.Value) }

func (p *MouseClick) Decode(r *buf.Reader) error {
	p.Value = r.ReadU32()
	return r.Err()
}

type CameraMove struct {
	gamePacket
	Pitch uint16
	Yaw   uint16
}

func (*CameraMove) Type() Type { return TypeCameraMove }

func (p *CameraMove) Encode(w *buf.Writer) {
	w.WriteU16(p.Pitch)
	w.WriteU16T(p.Yaw, buf.BigEndian, buf.Add)
}

func (p *CameraMove) Decode(r *buf.Reader) error {
	p.Pitch = r.ReadU16()
	p.Yaw = r.ReadU16T(buf.BigEndian, buf.Add)
	return r.Err()
}

type RegionChange struct {
	gamePacket
	Value uint32
}

func (*RegionChange) Type() Type { return TypeRegionChange }

func (p *RegionChange) Encode(w *buf.Writer) { w.WriteU32(p.Value) }

func (p *RegionChange) Decode(r *buf.Reader) error {
	p.Value = r.ReadU32()
	return r.Err()
}

// Step is one waypoint of a walk, relative to the first.
type Step struct {
	DX, DY int8
}

// Walk is a path request: an absolute first waypoint followed by deltas.
type Walk struct {
	X, Y  uint16
	Steps []Step
	Run   bool
}

const walkFixedSize = 5

func (p *Walk) encode(w *buf.Writer) {
	w.WriteU16T(p.X, buf.LittleEndian, buf.Add)
	for _, s := range p.Steps {
		w.WriteU8(byte(s.DX))
		w.WriteU8(byte(s.DY))
	}
	w.WriteU16T(p.Y, buf.LittleEndian, buf.Plain)
	w.WriteU8T(boolByte(p.Run), buf.Negate)
}

// decode reads a walk whose payload ends trailer bytes before the frame does.
func (p *Walk) decode(r *buf.Reader, trailer int) error {
	n := r.Remaining() - trailer
	if n < walkFixedSize || (n-walkFixedSize)%2 != 0 {
		return fmt.Errorf("%w: walk of %d bytes", ErrMalformed, n)
	}
	p.X = r.ReadU16T(buf.LittleEndian, buf.Add)
	p.Steps = make([]Step, (n-walkFixedSize)/2)
	for i := range p.Steps {
		p.Steps[i] = Step{DX: r.ReadI8(), DY: r.ReadI8()}
	}
	p.Y = r.ReadU16T(buf.LittleEndian, buf.Plain)
	p.Run = r.ReadU8T(buf.Negate) == 1
	return r.Err()
}

// Waypoints returns the absolute coordinates of every waypoint, first included.
func (p *Walk) Waypoints() [][2]int {
	points := make([][2]int, 0, len(p.Steps)+1)
	points = append(points, [2]int{int(p.X), int(p.Y)})
	for _, s := range p.Steps {
		points = append(points, [2]int{int(p.X) + int(s.DX), int(p.Y) + int(s.DY)})
	}
	return points
}

type WalkHere struct {
	gamePacket
	Walk
}

func (*WalkHere) Type() Type                   { return TypeWalkHere }
func (p *WalkHere) Encode(w *buf.Writer)       { p.encode(w) }
func (p *WalkHere) Decode(r *buf.Reader) error { return p.decode(r, 0) }

type WalkOnCommand struct {
	gamePacket
	Walk
}

func (*WalkOnCommand) Type() Type                   { return TypeWalkOnCommand }
func (p *WalkOnCommand) Encode(w *buf.Writer)       { p.encode(w) }
func (p *WalkOnCommand) Decode(r *buf.Reader) error { return p.decode(r, 0) }

// MinimapAntiCheatSize is the length of the trailer a minimap click carries.
const MinimapAntiCheatSize = 14

// MinimapWalk is a walk requested from the minimap. The trailing bytes carry
// the client's camera state and are not otherwise interpreted.
type MinimapWalk struct {
	gamePacket
	Walk
	AntiCheat [MinimapAntiCheatSize]byte
}

func (*MinimapWalk) Type() Type { return TypeMinimapWalk }

func (p *MinimapWalk) Encode(w *buf.Writer) {
	p.encode(w)
	w.WriteBytes(p.AntiCheat[:])
}

func (p *MinimapWalk) Decode(r *buf.Reader) error {
	if err := p.decode(r, MinimapAntiCheatSize); err != nil {
		return err
	}
	copy(p.AntiCheat[:], r.ReadBytes(MinimapAntiCheatSize))
	return r.Err()
}

// CharacterDesign is the appearance chosen on the design screen.
type CharacterDesign struct {
	gamePacket
	Gender byte
	Styles [7]byte
	Colors [5]byte
}

func (*CharacterDesign) Type() Type { return TypeCharacterDesign }

func (p *CharacterDesign) Encode(w *buf.Writer) {
	w.WriteU8(p.Gender)
	w.WriteBytes(p.Styles[:])
	w.WriteBytes(p.Colors[:])
}

func (p *CharacterDesign) Decode(r *buf.Reader) error {
	p.Gender = r.ReadU8()
	copy(p.Styles[:], r.ReadBytes(len(p.Styles)))
	copy(p.Colors[:], r.ReadBytes(len(p.Colors)))
	return r.Err()
}

// Command is a "::" command typed into the chat box, without the prefix.
type Command struct {
	gamePacket
	Text string
}

func (*Command) Type() Type { return TypeCommand }

func (p *Command) Encode(w *buf.Writer) { w.WriteString(p.Text) }

func (p *Command) Decode(r *buf.Reader) error {
	p.Text = r.ReadString()
	return r.Err()
}

type ButtonClick struct {
	gamePacket
	Button uint16
}

func (*ButtonClick) Type() Type { return TypeButtonClick }

func (p *ButtonClick) Encode(w *buf.Writer) { w.WriteU16(p.Button) }

func (p *ButtonClick) Decode(r *buf.Reader) error {
	p.Button = r.ReadU16()
	return r.Err()
}

type DialogueContinue struct {
	gamePacket
	Interface uint16
}

func (*DialogueContinue) Type() Type { return TypeDialogueContinue }

func (p *DialogueContinue) Encode(w *buf.Writer) { w.WriteU16(p.Interface) }

func (p *DialogueContinue) Decode(r *buf.Reader) error {
	p.Interface = r.ReadU16()
	return r.Err()
}

type EquipItem struct {
	gamePacket
	Item      uint16
	Slot      uint16
	Interface uint16
}

func (*EquipItem) Type() Type { return TypeEquipItem }

func (p *EquipItem) Encode(w *buf.Writer) {
	w.WriteU16(p.Item)
	w.WriteU16T(p.Slot, buf.BigEndian, buf.Add)
	w.WriteU16T(p.Interface, buf.BigEndian, buf.Add)
}

func (p *EquipItem) Decode(r *buf.Reader) error {
	p.Item = r.ReadU16()
	p.Slot = r.ReadU16T(buf.BigEndian, buf.Add)
	p.Interface = r.ReadU16T(buf.BigEndian, buf.Add)
	return r.Err()
}

type ItemOption1 struct {
	gamePacket
	Interface uint16
	Slot      uint16
	Item      uint16
}

func (*ItemOption1) Type() Type { return TypeItemOption1 }

func (p *ItemOption1) Encode(w *buf.Writer) {
	w.WriteU16T(p.Interface, buf.LittleEndian, buf.Add)
	w.WriteU16T(p.Slot, buf.BigEndian, buf.Add)
	w.WriteU16T(p.Item, buf.LittleEndian, buf.Plain)
}

func (p *ItemOption1) Decode(r *buf.Reader) error {
	p.Interface = r.ReadU16T(buf.LittleEndian, buf.Add)
	p.Slot = r.ReadU16T(buf.BigEndian, buf.Add)
	p.Item = r.ReadU16T(buf.LittleEndian, buf.Plain)
	return r.Err()
}

type DropItem struct {
	gamePacket
	Item      uint16
	Interface uint16
	Slot      uint16
}

func (*DropItem) Type() Type { return TypeDropItem }

func (p *DropItem) Encode(w *buf.Writer) {
	w.WriteU16T(p.Item, buf.BigEndian, buf.Add)
	w.WriteU16(p.Interface)
	w.WriteU16T(p.Slot, buf.BigEndian, buf.Add)
}

func (p *DropItem) Decode(r *buf.Reader) error {
	p.Item = r.ReadU16T(buf.BigEndian, buf.Add)
	p.Interface = r.ReadU16()
	p.Slot = r.ReadU16T(buf.BigEndian, buf.Add)
	return r.Err()
}

// MoveItem drags an item between slots. Inserting shifts the slots between
// instead of swapping.
type MoveItem struct {
	gamePacket
	Interface uint16
	Inserting bool
	From      uint16
	To        uint16
}

func (*MoveItem) Type() Type { return TypeMoveItem }

func (p *MoveItem) Encode(w *buf.Writer) {
	w.WriteU16T(p.Interface, buf.LittleEndian, buf.Add)
	w.WriteU8T(boolByte(p.Inserting), buf.Negate)
	w.WriteU16T(p.From, buf.LittleEndian, buf.Add)
	w.WriteU16T(p.To, buf.LittleEndian, buf.Plain)
}

func (p *MoveItem) Decode(r *buf.Reader) error {
	p.Interface = r.ReadU16T(buf.LittleEndian, buf.Add)
	p.Inserting = r.ReadU8T(buf.Negate) == 1
	p.From = r.ReadU16T(buf.LittleEndian, buf.Add)
	p.To = r.ReadU16T(buf.LittleEndian, buf.Plain)
	return r.Err()
}

type PickupItem struct {
	gamePacket
	Y    uint16
	Item uint16
	X    uint16
}

func (*PickupItem) Type() Type { return TypePickupItem }

func (p *PickupItem) Encode(w *buf.Writer) {
	w.WriteU16T(p.Y, buf.LittleEndian, buf.Plain)
	w.WriteU16(p.Item)
	w.WriteU16T(p.X, buf.LittleEndian, buf.Plain)
}

func (p *PickupItem) Decode(r *buf.Reader) error {
	p.Y = r.ReadU16T(buf.LittleEndian, buf.Plain)
	p.Item = r.ReadU16()
	p.X = r.ReadU16T(buf.LittleEndian, buf.Plain)
	return r.Err()
}

type NpcOption1 struct {
	gamePacket
	Index uint16
}

func (*NpcOption1) Type() Type { return TypeNpcOption1 }

func (p *NpcOption1) Encode(w *buf.Writer) { w.WriteU16T(p.Index, buf.LittleEndian, buf.Plain) }

func (p *NpcOption1) Decode(r *buf.Reader) error {
	p.Index = r.ReadU16T(buf.LittleEndian, buf.Plain)
	return r.Err()
}

type ObjectOption1 struct {
	gamePacket
	X      uint16
	Object uint16
	Y      uint16
}

func (*ObjectOption1) Type() Type { return TypeObjectOption1 }

func (p *ObjectOption1) Encode(w *buf.Writer) {
	w.WriteU16T(p.X, buf.LittleEndian, buf.Add)
	w.WriteU16(p.Object)
	w.WriteU16T(p.Y, buf.BigEndian, buf.Add)
}

func (p *ObjectOption1) Decode(r *buf.Reader) error {
	p.X = r.ReadU16T(buf.LittleEndian, buf.Add)
	p.Object = r.ReadU16()
	p.Y = r.ReadU16T(buf.BigEndian, buf.Add)
	return r.Err()
}

// nameOnly is the body of the friend and ignore list edits: one base37 name.
type nameOnly struct {
	gamePacket
	Name string
}

func (p *nameOnly) Encode(w *buf.Writer) { writeName(w, p.Name) }

func (p *nameOnly) Decode(r *buf.Reader) error {
	var err error
	p.Name, err = readName(r)
	return err
}

type AddFriend struct{ nameOnly }

func (*AddFriend) Type() Type { return TypeAddFriend }

type RemoveFriend struct{ nameOnly }

func (*RemoveFriend) Type() Type { return TypeRemoveFriend }

type AddIgnore struct{ nameOnly }

func (*AddIgnore) Type() Type { return TypeAddIgnore }

type RemoveIgnore struct{ nameOnly }

func (*RemoveIgnore) Type() Type { return TypeRemoveIgnore }

// PrivateMessage is a compressed message to one player. Unlike public chat
// the bytes are in natural order.
type PrivateMessage struct {
	gamePacket
	Recipient string
	Message   string
}

func (*PrivateMessage) Type() Type { return TypePrivateMessage }

func (p *PrivateMessage) Encode(w *buf.Writer) {
	writeName(w, p.Recipient)
	w.WriteBytes(text.Compress(p.Message))
}

func (p *PrivateMessage) Decode(r *buf.Reader) error {
	var err error
	if p.Recipient, err = readName(r); err != nil {
		return err
	}
	packed := r.ReadRest()
	p.Message = text.Decompress(packed, len(packed))
	return r.Err()
}

type PrivacyOptions struct {
	gamePacket
	Public, Private, Trade byte
}

func (*PrivacyOptions) Type() Type { return TypePrivacyOptions }

func (p *PrivacyOptions) Encode(w *buf.Writer) {
	w.WriteU8(p.Public)
	w.WriteU8(p.Private)
	w.WriteU8(p.Trade)
}

func (p *PrivacyOptions) Decode(r *buf.Reader) error {
	p.Public = r.ReadU8()
	p.Private = r.ReadU8()
	p.Trade = r.ReadU8()
	return r.Err()
}

type ReportAbuse struct {
	gamePacket
	Name string
	Rule byte
	Mute bool
}

func (*ReportAbuse) Type() Type { return TypeReportAbuse }

func (p *ReportAbuse) Encode(w *buf.Writer) {
	writeName(w, p.Name)
	w.WriteU8(p.Rule)
	w.WriteBool(p.Mute)
}

func (p *ReportAbuse) Decode(r *buf.Reader) error {
	var err error
	if p.Name, err = readName(r); err != nil {
		return err
	}
	p.Rule = r.ReadU8()
	p.Mute = r.ReadU8() == 1
	return r.Err()
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
