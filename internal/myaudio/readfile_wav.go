package myaudio

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/go-audio/wav"

	"github.com/tphakala/stressnet-go/internal/errors"
)

// WAVE format tags accepted by the decoder
const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// RIFF layout sizes
const (
	riffHeaderSize  = 12 // "RIFF", size, "WAVE"
	chunkHeaderSize = 8  // id, size
	listTypeSize    = 4  // "INFO", "adtl", ...
)

func decodeWAV(data []byte) (*PCM, error) {
	if err := checkRIFFChunks(data); err != nil {
		return nil, invalidAudio("wav", "decode_wav", len(data), "%v", err)
	}

	decoder := wav.NewDecoder(bytes.NewReader(data))
	decoder.ReadInfo()

	if !decoder.IsValidFile() {
		return nil, invalidAudio("wav", "decode_wav", len(data), "input is not a valid WAV audio file")
	}

	if decoder.WavAudioFormat != wavFormatPCM && decoder.WavAudioFormat != wavFormatExtensible {
		return nil, invalidAudio("wav", "decode_wav", len(data), "unsupported WAV encoding %d, only PCM is supported", decoder.WavAudioFormat)
	}

	bitDepth := int(decoder.BitDepth)
	var toFloat func(int) float32
	if bitDepth == 8 {
		// 8-bit WAV is unsigned with a 128 midpoint
		toFloat = func(v int) float32 { return float32(v-128) / 128.0 }
	} else {
		divisor, err := getAudioDivisor(bitDepth)
		if err != nil {
			return nil, invalidAudio("wav", "decode_wav", len(data), "%v", err)
		}
		toFloat = func(v int) float32 { return float32(v) / divisor }
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, invalidAudio("wav", "decode_wav", len(data), "reading PCM data: %v", err)
	}

	channels := int(decoder.NumChans)
	return &PCM{
		Samples:    downmix(buf.Data, channels, toFloat),
		SampleRate: int(decoder.SampleRate),
		Channels:   channels,
		BitDepth:   bitDepth,
	}, nil
}

// checkRIFFChunks walks the chunk headers in front of the data chunk and
// rejects any chunk that declares more bytes than the input holds. The WAV
// decoder allocates header and LIST chunks by their declared size before
// reading them. The data chunk itself is streamed, so an oversized data size
// from a streaming writer is accepted.
func checkRIFFChunks(data []byte) error {
	if len(data) < riffHeaderSize || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return errors.NewStd("input is not a valid WAV audio file")
	}

	offset := riffHeaderSize
	for offset+chunkHeaderSize <= len(data) {
		id := string(data[offset : offset+4])
		size := uint64(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + chunkHeaderSize
		if id == "data" {
			return nil
		}
		// the decoder word-aligns chunk sizes
		size += size % 2

		remaining := uint64(len(data) - body)
		if size > remaining {
			return fmt.Errorf("chunk %q declares %d bytes, only %d remain", id, size, remaining)
		}
		if id == "LIST" {
			if err := checkListChunk(data[body : body+int(size)]); err != nil {
				return err
			}
		}
		offset = body + int(size)
	}
	return nil
}

// checkListChunk validates the sub-chunk sizes of a LIST chunk body.
func checkListChunk(list []byte) error {
	if len(list) < listTypeSize {
		return nil
	}
	offset := listTypeSize
	for offset+chunkHeaderSize <= len(list) {
		size := uint64(binary.LittleEndian.Uint32(list[offset+4 : offset+8]))
		remaining := uint64(len(list) - offset - chunkHeaderSize)
		if size > remaining {
			return fmt.Errorf("LIST entry %q declares %d bytes, only %d remain",
				string(list[offset:offset+4]), size, remaining)
		}
		offset += chunkHeaderSize + int(size)
	}
	return nil
}
