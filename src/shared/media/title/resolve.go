package title

import (
	"regexp"
	"sort"
	"strings"

	"github.com/apex/log"
	mediaentity "github.com/veedubyou/midifi/src/shared/media/entity"
)

// NoisePhrases are removed from titles wherever they appear, ignoring case.
var NoisePhrases = []string{
	"Official Music Video",
	"Official Lyric Video",
	"Official Video",
	"Official Audio",
	"Official Visualizer",
	"Lyric Video",
	"Lyrics Video",
	"Music Video",
	"Clip Officiel",
	"Lyrics",
	"Visualizer",
	"Official",
	"Audio",
	"Video",
}

var separators = []string{" - ", "|"}

var (
	parenthesizedPattern = regexp.MustCompile(`\s*\([^()]*\)`)
	emptyBracketPattern  = regexp.MustCompile(`\[\s*\]`)
	whitespacePattern    = regexp.MustCompile(`\s+`)
	trailingDashPattern  = regexp.MustCompile(`\s*-\s*$`)
	topicSuffixPattern   = regexp.MustCompile(`(?i)\s*-\s*Topic$`)
	noisePattern         = compileNoisePattern(NoisePhrases)
)

// longer phrases go first so a match never leaves part of a longer phrase behind
func compileNoisePattern(phrases []string) *regexp.Regexp {
	sorted := append([]string(nil), phrases...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})

	quoted := make([]string, len(sorted))
	for i, phrase := range sorted {
		quoted[i] = regexp.QuoteMeta(phrase)
	}

	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// Resolve derives the canonical artist and song for a media item. It never
// fails: when the metadata is ambiguous it falls back to channel data and
// finally to sentinel names.
func Resolve(identity mediaentity.MediaIdentity) mediaentity.CanonicalName {
	logger := log.WithFields(log.Fields{
		"raw_title": identity.RawTitle,
		"channel":   identity.Channel,
		"uploader":  identity.Uploader,
		"track":     identity.TrackTag,
	})

	cleaned := CleanTitle(identity.RawTitle)

	artist, song, ok := splitArtistSong(cleaned)
	if !ok || song == "" {
		logger.Debug("No artist/song separator in title, using channel metadata")
		artist = artistFromChannel(identity)
		song = songFromTrack(identity, cleaned)
	} else if artist == "" {
		logger.Debug("Empty artist half in title, using channel metadata")
		artist = artistFromChannel(identity)
	}

	artist = strings.TrimSpace(trailingDashPattern.ReplaceAllString(artist, ""))
	song = strings.TrimSpace(trailingDashPattern.ReplaceAllString(song, ""))

	if artist == "" {
		artist = mediaentity.UnknownArtist
	}

	if song == "" {
		song = strings.TrimSpace(trailingDashPattern.ReplaceAllString(stripQuotes(cleaned), ""))
	}

	if song == "" {
		song = mediaentity.UnknownSong
	}

	return mediaentity.CanonicalName{
		Artist: artist,
		Song:   song,
	}
}

// CleanTitle transliterates a raw title and removes qualifiers and noise.
func CleanTitle(raw string) string {
	cleaned := transliterate(raw)
	cleaned = parenthesizedPattern.ReplaceAllString(cleaned, "")
	cleaned = noisePattern.ReplaceAllString(cleaned, "")
	cleaned = emptyBracketPattern.ReplaceAllString(cleaned, "")
	cleaned = collapseWhitespace(cleaned)
	cleaned = topicSuffixPattern.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

func splitArtistSong(cleaned string) (string, string, bool) {
	// trimming turns a leading " - " into "- ", an empty artist half
	if rest, found := strings.CutPrefix(cleaned, "-"); found && (rest == "" || strings.HasPrefix(rest, " ")) {
		return "", stripQuotes(strings.TrimSpace(rest)), true
	}

	cut, sepLen := -1, 0
	for _, sep := range separators {
		idx := strings.Index(cleaned, sep)
		if idx >= 0 && (cut < 0 || idx < cut) {
			cut, sepLen = idx, len(sep)
		}
	}

	if cut < 0 {
		return "", "", false
	}

	artist := strings.TrimSpace(cleaned[:cut])
	song := stripQuotes(strings.TrimSpace(cleaned[cut+sepLen:]))
	return artist, song, true
}

func artistFromChannel(identity mediaentity.MediaIdentity) string {
	artist := identity.Channel
	if strings.TrimSpace(artist) == "" {
		artist = identity.Uploader
	}

	artist = transliterate(artist)
	artist = topicSuffixPattern.ReplaceAllString(strings.TrimSpace(artist), "")
	artist = parenthesizedPattern.ReplaceAllString(artist, "")
	return collapseWhitespace(artist)
}

func songFromTrack(identity mediaentity.MediaIdentity, cleaned string) string {
	track := stripQuotes(collapseWhitespace(transliterate(identity.TrackTag)))
	if track != "" {
		return track
	}

	return stripQuotes(cleaned)
}

func stripQuotes(s string) string {
	return strings.TrimSpace(strings.Trim(s, `"'`))
}
