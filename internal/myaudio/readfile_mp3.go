package myaudio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 always produces 16-bit little-endian stereo
const (
	mp3Channels       = 2
	mp3BytesPerSample = 2
)

// id3HeaderSize is the fixed ID3v2 header: "ID3", version, flags, syncsafe size.
const id3HeaderSize = 10

func decodeMP3(data []byte) (*PCM, error) {
	if err := checkID3Tag(data); err != nil {
		return nil, invalidAudio("mp3", "decode_mp3", len(data), "%v", err)
	}

	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, invalidAudio("mp3", "decode_mp3", len(data), "input is not a valid MP3 stream: %v", err)
	}

	raw, err := io.ReadAll(decoder)
	if err != nil && len(raw) == 0 {
		return nil, invalidAudio("mp3", "decode_mp3", len(data), "reading MP3 frames: %v", err)
	}
	if err != nil {
		// A truncated final frame is common in uploads; keep what decoded.
		GetLogger().Debug("mp3 stream ended with error, using decoded frames")
	}

	ints := make([]int, len(raw)/mp3BytesPerSample)
	for i := range ints {
		ints[i] = int(int16(binary.LittleEndian.Uint16(raw[i*mp3BytesPerSample:])))
	}

	return &PCM{
		Samples:    downmix(ints, mp3Channels, func(v int) float32 { return float32(v) / 32768.0 }),
		SampleRate: decoder.SampleRate(),
		Channels:   mp3Channels,
		BitDepth:   16,
	}, nil
}

// checkID3Tag rejects an ID3v2 tag whose declared size exceeds the input.
// The MP3 decoder allocates the whole tag before skipping it.
func checkID3Tag(data []byte) error {
	if len(data) < id3HeaderSize || string(data[:3]) != "ID3" {
		return nil
	}
	// computed the way the decoder does, without masking the syncsafe bits
	b := data[6:10]
	size := int(b[0])<<21 | int(b[1])<<14 | int(b[2])<<7 | int(b[3])
	if remaining := len(data) - id3HeaderSize; size > remaining {
		return fmt.Errorf("ID3 tag declares %d bytes, only %d remain", size, remaining)
	}
	return nil
}
