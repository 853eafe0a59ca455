package packet

import (
	"fmt"

	"github.com/oldscape/server/internal/buf"
	"github.com/oldscape/server/internal/text"
)

const (
	loginMagic = 255
	rsaMarker  = 10

	// ArchiveCRCCount is the number of archive CRCs a login block carries.
	ArchiveCRCCount = 9
)

// HandshakeHello opens a game connection. NameHash is bits 16-20 of the
// base37 username and lets a login server pick a game server.
type HandshakeHello struct {
	sealedPacket
	NameHash byte
}

// NameHash derives the hello hash for a username.
func NameHash(username string) byte {
	return byte(text.EncodeBase37(username)>>16) & 0x1F
}

func (*HandshakeHello) Type() Type { return TypeHandshakeHello }

func (p *HandshakeHello) Encode(w *buf.Writer) { w.WriteU8(p.NameHash) }

func (p *HandshakeHello) Decode(r *buf.Reader) error {
	p.NameHash = r.ReadU8()
	return r.Err()
}

// UpdateRequest opens an update server connection. It takes whatever follows
// the opcode in the first read.
type UpdateRequest struct {
	sealedPacket
	Data []byte
}

func (*UpdateRequest) Type() Type { return TypeUpdateRequest }

func (p *UpdateRequest) Encode(w *buf.Writer) { w.WriteBytes(p.Data) }

func (p *UpdateRequest) Decode(r *buf.Reader) error {
	p.Data = append([]byte(nil), r.ReadRest()...)
	return r.Err()
}

// HandshakeResponse answers the hello with the server's session key. The
// client skips eight bytes, the opcode included, before reading Status.
type HandshakeResponse struct {
	sealedPacket
	Status    byte
	ServerKey uint64
}

const handshakePadding = 7

func (*HandshakeResponse) Type() Type { return TypeHandshakeResponse }

func (p *HandshakeResponse) Encode(w *buf.Writer) {
	w.WriteBytes(make([]byte, handshakePadding))
	w.WriteU8(p.Status)
	w.WriteU64(p.ServerKey)
}

func (p *HandshakeResponse) Decode(r *buf.Reader) error {
	r.ReadBytes(handshakePadding)
	p.Status = r.ReadU8()
	p.ServerKey = r.ReadU64()
	return r.Err()
}

// LoginBlock is the body shared by new and reconnecting logins.
type LoginBlock struct {
	Revision    uint16
	LowMemory   bool
	ArchiveCRCs [ArchiveCRCCount]uint32
	ClientKey   uint64
	ServerKey   uint64
	UID         uint32
	Username    string
	Password    string
}

func (b *LoginBlock) encode(w *buf.Writer) {
	w.WriteU8(loginMagic)
	w.WriteU16(b.Revision)
	w.WriteBool(b.LowMemory)
	for _, crc := range b.ArchiveCRCs {
		w.WriteU32(crc)
	}
	lengthAt := w.Len()
	w.WriteU8(0)
	w.WriteU8(rsaMarker)
	w.WriteU64(b.ClientKey)
	w.WriteU64(b.ServerKey)
	w.WriteU32(b.UID)
	w.WriteString(b.Username)
	w.WriteString(b.Password)
	w.PutU8At(lengthAt, byte(w.Len()-lengthAt-1))
}

func (b *LoginBlock) decode(r *buf.Reader) error {
	if magic := r.ReadU8(); r.Err() == nil && magic != loginMagic {
		return fmt.Errorf("%w: login magic %d", ErrMalformed, magic)
	}
	b.Revision = r.ReadU16()
	b.LowMemory = r.ReadU8() == 1
	for i := range b.ArchiveCRCs {
		b.ArchiveCRCs[i] = r.ReadU32()
	}
	secure := int(r.ReadU8())
	if err := r.Err(); err != nil {
		return err
	}
	if secure != r.Remaining() {
		return fmt.Errorf("%w: secure block declares %d bytes, %d remain", ErrMalformed, secure, r.Remaining())
	}
	if marker := r.ReadU8(); r.Err() == nil && marker != rsaMarker {
		return fmt.Errorf("%w: secure block marker %d", ErrMalformed, marker)
	}
	b.ClientKey = r.ReadU64()
	b.ServerKey = r.ReadU64()
	b.UID = r.ReadU32()
	b.Username = r.ReadString()
	b.Password = r.ReadString()
	if err := r.Err(); err != nil {
		return err
	}
	if r.Remaining() != 0 {
		return fmt.Errorf("%w: %d trailing login bytes", ErrMalformed, r.Remaining())
	}
	return nil
}

// LoginRequest is a fresh login.
type LoginRequest struct {
	sealedPacket
	LoginBlock
}

func (*LoginRequest) Type() Type                   { return TypeLoginRequest }
func (p *LoginRequest) Encode(w *buf.Writer)       { p.encode(w) }
func (p *LoginRequest) Decode(r *buf.Reader) error { return p.decode(r) }

// ReconnectRequest is a login after a dropped connection.
type ReconnectRequest struct {
	sealedPacket
	LoginBlock
}

func (*ReconnectRequest) Type() Type                   { return TypeReconnectRequest }
func (p *ReconnectRequest) Encode(w *buf.Writer)       { p.encode(w) }
func (p *ReconnectRequest) Decode(r *buf.Reader) error { return p.decode(r) }

// LoginAccepted completes a login.
type LoginAccepted struct {
	sealedPacket
	Rights  byte
	Flagged bool
}

func (*LoginAccepted) Type() Type { return TypeLoginAccepted }

func (p *LoginAccepted) Encode(w *buf.Writer) {
	w.WriteU8(p.Rights)
	w.WriteBool(p.Flagged)
}

func (p *LoginAccepted) Decode(r *buf.Reader) error {
	p.Rights = r.ReadU8()
	p.Flagged = r.ReadU8() == 1
	return r.Err()
}

// RejectReason is why a login was refused. Each reason has its own opcode.
type RejectReason uint8

const (
	RejectInvalidCredentials RejectReason = iota
	RejectAccountDisabled
	RejectAlreadyOnline
	RejectGameUpdated
	RejectServerFull
	RejectServerOffline
)

var rejectTypes = [...]Type{
	RejectInvalidCredentials: TypeLoginInvalidCredentials,
	RejectAccountDisabled:    TypeLoginAccountDisabled,
	RejectAlreadyOnline:      TypeLoginAlreadyOnline,
	RejectGameUpdated:        TypeLoginGameUpdated,
	RejectServerFull:         TypeLoginServerFull,
	RejectServerOffline:      TypeLoginServerOffline,
}

func (r RejectReason) String() string {
	if int(r) < len(rejectTypes) {
		return rejectTypes[r].String()
	}
	return fmt.Sprintf("RejectReason(%d)", uint8(r))
}

// LoginRejected refuses a login. It has no payload; the reason is the opcode.
type LoginRejected struct {
	sealedPacket
	empty
	Reason RejectReason
}

func (p *LoginRejected) Type() Type {
	if int(p.Reason) < len(rejectTypes) {
		return rejectTypes[p.Reason]
	}
	return TypeInvalid
}
