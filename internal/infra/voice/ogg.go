package voice

import (
	"bufio"
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
)

// oggReader extracts Opus packets from an Ogg stream. Only the page
// layout is interpreted; packet payloads pass through untouched.
type oggReader struct {
	r *bufio.Reader

	// packets already assembled from the current page
	packets [][]byte
	// partial packet continued on the next page
	partial []byte
}

var oggMagic = []byte("OggS")

const maxPacketSize = 1 << 20

func newOggReader(r io.Reader) *oggReader {
	return &oggReader{r: bufio.NewReaderSize(r, 64<<10)}
}

// NextPacket returns the next logical packet, reading pages as needed.
// io.EOF signals the end of the stream.
func (o *oggReader) NextPacket() ([]byte, error) {
	for len(o.packets) == 0 {
		if err := o.readPage(); err != nil {
			return nil, err
		}
	}
	pkt := o.packets[0]
	o.packets = o.packets[1:]
	return pkt, nil
}

// readPage consumes one page and appends its completed packets.
func (o *oggReader) readPage() error {
	header := make([]byte, 27)
	if _, err := io.ReadFull(o.r, header); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return io.EOF
		}
		return err
	}
	if !bytes.Equal(header[:4], oggMagic) {
		return errors.New("bad ogg page magic")
	}
	if header[4] != 0 {
		return errors.Newf("unsupported ogg version %d", header[4])
	}
	continued := header[5]&0x01 != 0

	segCount := int(header[26])
	segTable := make([]byte, segCount)
	if _, err := io.ReadFull(o.r, segTable); err != nil {
		return errors.Wrap(err, "read segment table")
	}

	if !continued {
		o.partial = nil
	}

	for _, lacing := range segTable {
		n := int(lacing)
		seg := make([]byte, n)
		if _, err := io.ReadFull(o.r, seg); err != nil {
			return errors.Wrap(err, "read segment")
		}
		o.partial = append(o.partial, seg...)
		if len(o.partial) > maxPacketSize {
			return errors.New("ogg packet too large")
		}
		// A lacing value below 255 terminates the packet.
		if n < 255 {
			o.packets = append(o.packets, o.partial)
			o.partial = nil
		}
	}
	return nil
}

// isOpusHeader reports whether a packet is an OpusHead or OpusTags
// header rather than audio.
func isOpusHeader(pkt []byte) bool {
	return bytes.HasPrefix(pkt, []byte("OpusHead")) || bytes.HasPrefix(pkt, []byte("OpusTags"))
}
