package config

import (
	"fmt"
	"os/exec"
	"strings"
)

func FindBin(bin string) string {
	cmd := exec.Command("which", bin)
	output, err := cmd.CombinedOutput()

	stringOutput := string(output)
	if err != nil {
		panic(fmt.Sprintf("Failed to find %s: %s", bin, stringOutput))
	}

	trimmedOutput := strings.TrimSpace(stringOutput)
	if trimmedOutput == "" {
		panic(fmt.Sprintf("No bin found for %s", bin))
	}

	return trimmedOutput
}

// LookupBin is FindBin for optional tools, returning "" instead of panicking.
func LookupBin(bin string) string {
	path, err := exec.LookPath(bin)
	if err != nil {
		return ""
	}

	return path
}

func YoutubeDLPath() string {
	return FindBin("yt-dlp")
}

func DemucsPath() string {
	return FindBin("demucs")
}

func BasicPitchPath() string {
	return FindBin("basic-pitch")
}
