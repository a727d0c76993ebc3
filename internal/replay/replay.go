// Package replay records headless battles as a msgpack stream: one header
// followed by one frame per tick.
package replay

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// Version is written into every header.
const Version = 1

type Obstacle struct {
	X    float64 `msgpack:"x"`
	Y    float64 `msgpack:"y"`
	Size float64 `msgpack:"s"`
}

type Header struct {
	Version   int        `msgpack:"v"`
	Seed      int64      `msgpack:"seed"`
	Width     float64    `msgpack:"w"`
	Height    float64    `msgpack:"h"`
	Obstacles []Obstacle `msgpack:"obs"`
}

type Tank struct {
	ID       int     `msgpack:"id"`
	Kind     string  `msgpack:"k"`
	X        float64 `msgpack:"x"`
	Y        float64 `msgpack:"y"`
	Rotation float64 `msgpack:"r"`
	Turret   float64 `msgpack:"t"`
	Alive    bool    `msgpack:"a"`
}

type Shell struct {
	Owner   int     `msgpack:"o"`
	X       float64 `msgpack:"x"`
	Y       float64 `msgpack:"y"`
	Heading float64 `msgpack:"hd"`
	Bounces int     `msgpack:"b"`
}

// Frame is the state at the end of one tick.
type Frame struct {
	Tick   int     `msgpack:"tick"`
	Tanks  []Tank  `msgpack:"tanks"`
	Shells []Shell `msgpack:"shells"`
}

// Recorder writes a replay stream.
type Recorder struct {
	buf    *bufio.Writer
	enc    *msgpack.Encoder
	frames int
}

// NewRecorder writes h to w and returns a recorder for the frames.
func NewRecorder(w io.Writer, h Header) (*Recorder, error) {
	buf := bufio.NewWriter(w)
	r := &Recorder{buf: buf, enc: msgpack.NewEncoder(buf)}
	h.Version = Version
	if err := r.enc.Encode(&h); err != nil {
		return nil, errors.Wrap(err, "replay: write header")
	}
	return r, nil
}

func (r *Recorder) Record(f Frame) error {
	if err := r.enc.Encode(&f); err != nil {
		return errors.Wrapf(err, "replay: write frame %d", f.Tick)
	}
	r.frames++
	return nil
}

// Frames returns how many frames have been recorded.
func (r *Recorder) Frames() int { return r.frames }

// Flush writes buffered frames to the underlying writer.
func (r *Recorder) Flush() error {
	return errors.Wrap(r.buf.Flush(), "replay: flush")
}

// Reader iterates a replay stream.
type Reader struct {
	dec    *msgpack.Decoder
	header Header
}

// NewReader reads and checks the header.
func NewReader(r io.Reader) (*Reader, error) {
	rd := &Reader{dec: msgpack.NewDecoder(bufio.NewReader(r))}
	if err := rd.dec.Decode(&rd.header); err != nil {
		return nil, errors.Wrap(err, "replay: read header")
	}
	if rd.header.Version != Version {
		return nil, errors.Errorf("replay: unsupported version %d", rd.header.Version)
	}
	return rd, nil
}

func (r *Reader) Header() Header { return r.header }

// Next returns the next frame, or io.EOF after the last one.
func (r *Reader) Next() (Frame, error) {
	var f Frame
	if err := r.dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, io.EOF
		}
		return Frame{}, errors.Wrap(err, "replay: read frame")
	}
	return f, nil
}
