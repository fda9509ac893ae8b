package voice

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// page builds one raw ogg page. Lacing values describe the payload
// layout exactly as they would appear in the segment table.
func page(continued bool, lacings []byte, payload []byte) []byte {
	header := make([]byte, 27)
	copy(header, "OggS")
	if continued {
		header[5] = 0x01
	}
	header[26] = byte(len(lacings))

	out := append([]byte{}, header...)
	out = append(out, lacings...)
	return append(out, payload...)
}

func fill(n int, b byte) []byte {
	return bytes.Repeat([]byte{b}, n)
}

func drain(t *testing.T, r *oggReader) [][]byte {
	t.Helper()
	var packets [][]byte
	for {
		pkt, err := r.NextPacket()
		if err == io.EOF {
			return packets
		}
		require.NoError(t, err)
		packets = append(packets, pkt)
	}
}

func TestOggReader_PacketsInOnePage(t *testing.T) {
	payload := append(fill(10, 'a'), fill(20, 'b')...)
	stream := page(false, []byte{10, 20}, payload)

	packets := drain(t, newOggReader(bytes.NewReader(stream)))
	require.Len(t, packets, 2)
	assert.Equal(t, fill(10, 'a'), packets[0])
	assert.Equal(t, fill(20, 'b'), packets[1])
}

func TestOggReader_LongPacketLacing(t *testing.T) {
	// 255 + 45 bytes: a lacing value of 255 continues the packet
	// inside the page, 45 terminates it.
	stream := page(false, []byte{255, 45}, fill(300, 'x'))

	packets := drain(t, newOggReader(bytes.NewReader(stream)))
	require.Len(t, packets, 1)
	assert.Equal(t, fill(300, 'x'), packets[0])
}

func TestOggReader_ExactMultipleOf255(t *testing.T) {
	// A 255-byte packet needs a zero lacing value to terminate.
	stream := page(false, []byte{255, 0}, fill(255, 'x'))

	packets := drain(t, newOggReader(bytes.NewReader(stream)))
	require.Len(t, packets, 1)
	assert.Len(t, packets[0], 255)
}

func TestOggReader_PacketSpansPages(t *testing.T) {
	var stream []byte
	stream = append(stream, page(false, []byte{255}, fill(255, 'x'))...)
	stream = append(stream, page(true, []byte{45}, fill(45, 'x'))...)

	packets := drain(t, newOggReader(bytes.NewReader(stream)))
	require.Len(t, packets, 1)
	assert.Equal(t, fill(300, 'x'), packets[0])
}

func TestOggReader_MultiplePages(t *testing.T) {
	var stream []byte
	stream = append(stream, page(false, []byte{3}, []byte("one"))...)
	stream = append(stream, page(false, []byte{3}, []byte("two"))...)

	packets := drain(t, newOggReader(bytes.NewReader(stream)))
	require.Len(t, packets, 2)
	assert.Equal(t, []byte("one"), packets[0])
	assert.Equal(t, []byte("two"), packets[1])
}

func TestOggReader_BadMagic(t *testing.T) {
	stream := page(false, []byte{3}, []byte("one"))
	stream[0] = 'X'

	_, err := newOggReader(bytes.NewReader(stream)).NextPacket()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "magic")
}

func TestOggReader_TruncatedStream(t *testing.T) {
	stream := page(false, []byte{10}, fill(4, 'x')) // payload cut short

	_, err := newOggReader(bytes.NewReader(stream)).NextPacket()
	assert.Error(t, err)
}

func TestOggReader_EmptyStream(t *testing.T) {
	_, err := newOggReader(bytes.NewReader(nil)).NextPacket()
	assert.Equal(t, io.EOF, err)
}

func TestIsOpusHeader(t *testing.T) {
	assert.True(t, isOpusHeader([]byte("OpusHead\x01\x02")))
	assert.True(t, isOpusHeader([]byte("OpusTags\x00")))
	assert.False(t, isOpusHeader([]byte{0xfc, 0xff, 0xfe}))
	assert.False(t, isOpusHeader(nil))
}
