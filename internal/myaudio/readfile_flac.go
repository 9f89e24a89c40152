package myaudio

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/tphakala/flac"
)

func decodeFLAC(data []byte) (*PCM, error) {
	decoder, err := flac.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, invalidAudio("flac", "decode_flac", len(data), "input is not a valid FLAC stream: %v", err)
	}

	bitDepth := decoder.BitsPerSample
	divisor, err := getAudioDivisor(bitDepth)
	if err != nil {
		return nil, invalidAudio("flac", "decode_flac", len(data), "%v", err)
	}
	channels := decoder.NChannels
	bytesPerSample := bitDepth / 8

	ints := make([]int, 0, int(decoder.TotalSamples)*channels)
	for {
		frame, err := decoder.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, invalidAudio("flac", "decode_flac", len(data), "reading FLAC frame: %v", err)
		}

		for i := 0; i+bytesPerSample <= len(frame); i += bytesPerSample {
			ints = append(ints, pcmSampleLE(frame[i:], bitDepth))
		}
	}

	return &PCM{
		Samples:    downmix(ints, channels, func(v int) float32 { return float32(v) / divisor }),
		SampleRate: decoder.SampleRate,
		Channels:   channels,
		BitDepth:   bitDepth,
	}, nil
}

// pcmSampleLE reads one signed little-endian sample of the given bit depth.
func pcmSampleLE(b []byte, bitDepth int) int {
	switch bitDepth {
	case 16:
		return int(int16(binary.LittleEndian.Uint16(b)))
	case 24:
		v := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
		return int(int32(v<<8) >> 8) // sign-extend
	case 32:
		return int(int32(binary.LittleEndian.Uint32(b)))
	default:
		return 0
	}
}
