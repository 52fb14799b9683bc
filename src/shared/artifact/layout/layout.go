package layout

import (
	"path/filepath"
	"strings"

	"github.com/veedubyou/midifi/src/shared/lib/filename"
	mediaentity "github.com/veedubyou/midifi/src/shared/media/entity"
)

const (
	AudioExt         = ".mp3"
	TranscriptionExt = ".mid"
	DrumTrackName    = "drums"

	DefaultModel     = "htdemucs_ft"
	DefaultDrumModel = "modelo_final"

	drumDirSuffix      = "_drums"
	transcriptionDir   = "midi"
	placeholderSegment = "_"
)

// ArtifactPaths is the on-disk tree for one song. Every field is derived from
// the canonical name and the separation model; nothing here touches the disk.
type ArtifactPaths struct {
	RootDir          string   `json:"root_dir"`
	ArtistDir        string   `json:"artist_dir"`
	SongDir          string   `json:"song_dir"`
	RawAudioFile     string   `json:"raw_audio_file"`
	StemDir          string   `json:"stem_dir"`
	StemFiles        []string `json:"stem_files"`
	DrumStemDir      string   `json:"drum_stem_dir"`
	DrumStemFiles    []string `json:"drum_stem_files"`
	TranscriptionDir string   `json:"transcription_dir"`
}

// DrumTrackFile is the un-split drum stem inside the stem dir.
func (a ArtifactPaths) DrumTrackFile() string {
	return filepath.Join(a.StemDir, DrumTrackName+AudioExt)
}

// RawAudioTemplate is the download destination with the extension left for
// the downloader to fill in.
func (a ArtifactPaths) RawAudioTemplate() string {
	return strings.TrimSuffix(a.RawAudioFile, AudioExt) + ".%(ext)s"
}

type Manager struct {
	Root      string
	Model     string
	DrumModel string
}

func NewManager(root string, model string, drumModel string) Manager {
	if model == "" {
		model = DefaultModel
	}

	if drumModel == "" {
		drumModel = DefaultDrumModel
	}

	return Manager{
		Root:      root,
		Model:     model,
		DrumModel: drumModel,
	}
}

// WithModel returns a manager laying out stems for another separation model.
func (m Manager) WithModel(model string) Manager {
	if model != "" {
		m.Model = model
	}

	return m
}

func (m Manager) WithDrumModel(drumModel string) Manager {
	if drumModel != "" {
		m.DrumModel = drumModel
	}

	return m
}

func (m Manager) Paths(name mediaentity.CanonicalName) ArtifactPaths {
	artistDir := filepath.Join(m.Root, segment(name.Artist))
	song := segment(name.Song)
	songDir := filepath.Join(artistDir, song)

	return m.pathsForSong(m.Root, artistDir, songDir, filepath.Join(songDir, song+AudioExt))
}

// FromAudioFile lays out a tree around an audio file that already exists,
// treating its directory as the song directory.
func (m Manager) FromAudioFile(audioFile string) ArtifactPaths {
	audioFile = filepath.Clean(audioFile)
	songDir := filepath.Dir(audioFile)
	artistDir := filepath.Dir(songDir)

	return m.pathsForSong(filepath.Dir(artistDir), artistDir, songDir, audioFile)
}

func (m Manager) pathsForSong(rootDir string, artistDir string, songDir string, rawAudioFile string) ArtifactPaths {
	model := segment(m.Model)

	return ArtifactPaths{
		RootDir:          rootDir,
		ArtistDir:        artistDir,
		SongDir:          songDir,
		RawAudioFile:     rawAudioFile,
		StemDir:          filepath.Join(songDir, model),
		DrumStemDir:      filepath.Join(songDir, model+drumDirSuffix, DrumTrackName),
		TranscriptionDir: filepath.Join(songDir, transcriptionDir),
	}
}

// segment sanitizes a display name into one directory level. Names that
// sanitize to nothing or to dots only would address the parent or the
// directory itself, so they get a placeholder prefix.
func segment(name string) string {
	sanitized := filename.Sanitize(name)
	if strings.Trim(sanitized, ".") == "" {
		return placeholderSegment + sanitized
	}

	return sanitized
}

func TranscriptionFile(paths ArtifactPaths, stemFile string) string {
	return filepath.Join(paths.TranscriptionDir, filename.Stem(stemFile)+TranscriptionExt)
}

// TranscriptionInputs lists the stems to transcribe. The raw audio file is
// never included, and neither is the un-split drum track once its components
// exist. Files are matched by path, never by position.
func TranscriptionInputs(paths ArtifactPaths, drumsSplit bool) []string {
	excluded := map[string]bool{
		filepath.Clean(paths.RawAudioFile): true,
	}

	if drumsSplit {
		excluded[filepath.Clean(paths.DrumTrackFile())] = true
	}

	inputs := []string{}
	seen := map[string]bool{}
	for _, files := range [][]string{paths.StemFiles, paths.DrumStemFiles} {
		for _, file := range files {
			cleaned := filepath.Clean(file)
			if excluded[cleaned] || seen[cleaned] {
				continue
			}

			seen[cleaned] = true
			inputs = append(inputs, file)
		}
	}

	return inputs
}
