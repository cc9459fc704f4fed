package gbuffer

import (
	"encoding/binary"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Record is the unpacked description of a visible surface.
type Record struct {
	Albedo    mgl32.Vec3
	Normal    mgl32.Vec3
	Roughness float32
	Metalness float32
	Emissive  mgl32.Vec3
}

// Packed layout:
//
//	[0] albedo rgb unorm8, top byte zero
//	[1] octahedral normal, snorm16 x | snorm16 y << 16
//	[2] roughness unorm16 | metalness unorm16 << 16
//	[3] emissive rgb9e5
type Packed [4]uint32

// PackedSize is the byte size of a Packed value on the wire.
const PackedSize = 16

// CreateZero returns the "no surface" record. Its normal carries no direction.
func CreateZero() Record {
	return Record{}
}

func Pack(r Record) Packed {
	var p Packed
	p[0] = packUnorm8(r.Albedo[0]) | packUnorm8(r.Albedo[1])<<8 | packUnorm8(r.Albedo[2])<<16

	oct := octEncode(r.Normal)
	p[1] = packSnorm16(oct[0]) | packSnorm16(oct[1])<<16

	p[2] = packUnorm16(r.Roughness) | packUnorm16(r.Metalness)<<16
	p[3] = packRGB9E5(r.Emissive)
	return p
}

func (p Packed) Unpack() Record {
	return Record{
		Albedo: mgl32.Vec3{
			unpackUnorm8(p[0]),
			unpackUnorm8(p[0] >> 8),
			unpackUnorm8(p[0] >> 16),
		},
		Normal:    octDecode(mgl32.Vec2{unpackSnorm16(p[1]), unpackSnorm16(p[1] >> 16)}),
		Roughness: unpackUnorm16(p[2]),
		Metalness: unpackUnorm16(p[2] >> 16),
		Emissive:  unpackRGB9E5(p[3]),
	}
}

// Bytes returns the little-endian wire form.
func (p Packed) Bytes() []byte {
	buf := make([]byte, PackedSize)
	for i, v := range p {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	return buf
}

func FromBytes(buf []byte) (Packed, error) {
	if len(buf) < PackedSize {
		return Packed{}, fmt.Errorf("gbuffer: need %d bytes, got %d", PackedSize, len(buf))
	}
	var p Packed
	for i := range p {
		p[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}
	return p, nil
}

func packUnorm8(v float32) uint32 {
	return uint32(mgl32.Clamp(v, 0, 1)*255 + 0.5)
}

func unpackUnorm8(v uint32) float32 {
	return float32(v&0xff) / 255
}

func packUnorm16(v float32) uint32 {
	return uint32(mgl32.Clamp(v, 0, 1)*65535 + 0.5)
}

func unpackUnorm16(v uint32) float32 {
	return float32(v&0xffff) / 65535
}

func packSnorm16(v float32) uint32 {
	q := int32(math32.Round(mgl32.Clamp(v, -1, 1) * 32767))
	return uint32(uint16(int16(q)))
}

func unpackSnorm16(v uint32) float32 {
	return math32.Max(float32(int16(uint16(v)))/32767, -1)
}

func signNotZero(v float32) float32 {
	if v >= 0 {
		return 1
	}
	return -1
}

func octEncode(n mgl32.Vec3) mgl32.Vec2 {
	l1 := math32.Abs(n[0]) + math32.Abs(n[1]) + math32.Abs(n[2])
	if l1 == 0 {
		return mgl32.Vec2{}
	}
	p := mgl32.Vec2{n[0] / l1, n[1] / l1}
	if n[2] < 0 {
		p = mgl32.Vec2{
			(1 - math32.Abs(p[1])) * signNotZero(p[0]),
			(1 - math32.Abs(p[0])) * signNotZero(p[1]),
		}
	}
	return p
}

func octDecode(e mgl32.Vec2) mgl32.Vec3 {
	v := mgl32.Vec3{e[0], e[1], 1 - math32.Abs(e[0]) - math32.Abs(e[1])}
	if v[2] < 0 {
		v[0], v[1] = (1-math32.Abs(e[1]))*signNotZero(e[0]), (1-math32.Abs(e[0]))*signNotZero(e[1])
	}
	return v.Normalize()
}
