package speech

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

var ErrUnsupportedAudio = errors.New("unsupported audio")

type fmtChunk struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// ParseWAV validates a RIFF/WAVE file holding 16-bit PCM and returns its
// samples and duration. Chunks other than "fmt " and "data" are skipped.
func ParseWAV(data []byte) (Audio, time.Duration, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Audio{}, 0, fmt.Errorf("%w: not a RIFF/WAVE file", ErrUnsupportedAudio)
	}

	r := bytes.NewReader(data[12:])
	var format *fmtChunk
	for {
		var id [4]byte
		var size uint32
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			if errors.Is(err, io.EOF) {
				return Audio{}, 0, fmt.Errorf("%w: no data chunk", ErrUnsupportedAudio)
			}
			return Audio{}, 0, fmt.Errorf("%w: %v", ErrUnsupportedAudio, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return Audio{}, 0, fmt.Errorf("%w: truncated chunk header", ErrUnsupportedAudio)
		}

		switch string(id[:]) {
		case "fmt ":
			if size < 16 {
				return Audio{}, 0, fmt.Errorf("%w: short fmt chunk", ErrUnsupportedAudio)
			}
			var f fmtChunk
			if err := binary.Read(r, binary.LittleEndian, &f); err != nil {
				return Audio{}, 0, fmt.Errorf("%w: truncated fmt chunk", ErrUnsupportedAudio)
			}
			if _, err := r.Seek(int64(size-16+size%2), io.SeekCurrent); err != nil {
				return Audio{}, 0, fmt.Errorf("%w: %v", ErrUnsupportedAudio, err)
			}
			format = &f
		case "data":
			if format == nil {
				return Audio{}, 0, fmt.Errorf("%w: data before fmt chunk", ErrUnsupportedAudio)
			}
			if format.AudioFormat != 1 || format.BitsPerSample != 16 {
				return Audio{}, 0, fmt.Errorf("%w: expected 16-bit PCM, got format %d with %d bits",
					ErrUnsupportedAudio, format.AudioFormat, format.BitsPerSample)
			}
			if format.ByteRate == 0 || format.NumChannels == 0 {
				return Audio{}, 0, fmt.Errorf("%w: invalid fmt chunk", ErrUnsupportedAudio)
			}
			if int64(size) > int64(r.Len()) {
				size = uint32(r.Len())
			}
			pcm := make([]byte, size)
			if _, err := io.ReadFull(r, pcm); err != nil {
				return Audio{}, 0, fmt.Errorf("%w: %v", ErrUnsupportedAudio, err)
			}
			duration := time.Duration(float64(size) / float64(format.ByteRate) * float64(time.Second))
			return Audio{
				PCM:        pcm,
				SampleRate: int(format.SampleRate),
				Channels:   int(format.NumChannels),
			}, duration, nil
		default:
			if _, err := r.Seek(int64(size+size%2), io.SeekCurrent); err != nil {
				return Audio{}, 0, fmt.Errorf("%w: %v", ErrUnsupportedAudio, err)
			}
		}
	}
}
