package media

import "bytes"

// Format describes a detected audio container.
type Format struct {
	Ext  string // file extension without the dot
	MIME string
}

// DetectFormat sniffs the container of an audio payload from its leading
// bytes. Unrecognized payloads fall back to mp3, which matches what the
// conversion backend produces in practice.
func DetectFormat(data []byte) Format {
	if len(data) >= 3 && bytes.Equal(data[:3], []byte{0x49, 0x44, 0x33}) {
		// "ID3" tag prefix
		return Format{Ext: "mp3", MIME: "audio/mpeg"}
	}
	if len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0 {
		// raw MPEG frame sync
		return Format{Ext: "mp3", MIME: "audio/mpeg"}
	}
	if len(data) >= 4 && bytes.Equal(data[:4], []byte("RIFF")) {
		return Format{Ext: "wav", MIME: "audio/wav"}
	}
	if looksLikeMP4(data) {
		return Format{Ext: "m4a", MIME: "audio/mp4"}
	}
	return Format{Ext: "mp3", MIME: "audio/mpeg"}
}

// looksLikeMP4 checks for an "ftyp" box marker near the start of the
// payload. MP4 boxes carry a 4-byte length prefix, so the marker floats
// within the first few bytes rather than sitting at offset zero.
func looksLikeMP4(data []byte) bool {
	limit := 16
	if len(data) < limit {
		limit = len(data)
	}
	return bytes.Contains(data[:limit], []byte("ftyp")) ||
		bytes.Contains(data[:limit], []byte("M4A "))
}
