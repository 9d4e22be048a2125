package transform

import "strings"

// Codec is the output encoding directive for a container.
type Codec struct {
	Audio   string
	Quality string
	Bitrate string
	// CopyVideo passes video streams through untouched.
	CopyVideo bool
}

var (
	mp3Codec    = Codec{Audio: "libmp3lame", Quality: "2"}
	wavCodec    = Codec{Audio: "pcm_s16le"}
	oggCodec    = Codec{Audio: "libvorbis", Quality: "6"}
	aacCodec    = Codec{Audio: "aac", Bitrate: "192k"}
	videoCodec  = Codec{Audio: "aac", Bitrate: "192k", CopyVideo: true}
	codecsByExt = map[string]Codec{
		"mp3":  mp3Codec,
		"wav":  wavCodec,
		"ogg":  oggCodec,
		"m4a":  aacCodec,
		"mp4":  videoCodec,
		"webm": videoCodec,
	}
)

// CodecFor returns the codec directive for ext. Unknown extensions fall back
// to MP3 settings.
func CodecFor(ext string) Codec {
	key := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if codec, ok := codecsByExt[key]; ok {
		return codec
	}
	return mp3Codec
}

// Args renders the codec as ffmpeg arguments.
func (c Codec) Args() []string {
	args := []string{"-acodec", c.Audio}
	if c.Quality != "" {
		args = append(args, "-q:a", c.Quality)
	}
	if c.Bitrate != "" {
		args = append(args, "-b:a", c.Bitrate)
	}
	if c.CopyVideo {
		args = append(args, "-vcodec", "copy")
	}
	return args
}
