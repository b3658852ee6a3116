package normalize

import (
	"regexp"
	"strings"
)

// VersionType classifies a performed version of a work.
type VersionType string

const (
	VersionOriginal     VersionType = "original"
	VersionLive         VersionType = "live"
	VersionRemix        VersionType = "remix"
	VersionRadioEdit    VersionType = "radio_edit"
	VersionAcoustic     VersionType = "acoustic"
	VersionInstrumental VersionType = "instrumental"
	VersionRemaster     VersionType = "remaster"
	VersionExtended     VersionType = "extended"
	VersionDemo         VersionType = "demo"
	VersionCover        VersionType = "cover"
)

// suffixPattern matches a trailing parenthetical or bracketed qualifier.
var suffixPattern = regexp.MustCompile(`\s*[(\[]([^()\[\]]+)[)\]]\s*$`)

var versionKeywords = []struct {
	keyword string
	version VersionType
}{
	{"radio edit", VersionRadioEdit},
	{"radio version", VersionRadioEdit},
	{"single edit", VersionRadioEdit},
	{"single version", VersionRadioEdit},
	{"remaster", VersionRemaster},
	{"remastered", VersionRemaster},
	{"remix", VersionRemix},
	{"mix", VersionRemix},
	{"dub", VersionRemix},
	{"acoustic", VersionAcoustic},
	{"unplugged", VersionAcoustic},
	{"instrumental", VersionInstrumental},
	{"karaoke", VersionInstrumental},
	{"extended", VersionExtended},
	{"live", VersionLive},
	{"concert", VersionLive},
	{"session", VersionLive},
	{"demo", VersionDemo},
	{"cover", VersionCover},
	{"tribute", VersionCover},
}

// ExtractVersionType strips a recognized parenthetical or bracketed
// version qualifier from the end of a title. It returns the residual
// title and the classified version tag. Unrecognized suffixes are left in
// place and classify as the original version. Stacked qualifiers such as
// "Song (Remastered) (Live)" resolve to the outermost recognized tag.
func ExtractVersionType(title string) (string, VersionType) {
	residual := strings.TrimSpace(title)
	version := VersionOriginal

	for {
		loc := suffixPattern.FindStringSubmatchIndex(residual)
		if loc == nil {
			break
		}
		inner := residual[loc[2]:loc[3]]
		classified, ok := classifyVersion(inner)
		if !ok {
			break
		}
		if version == VersionOriginal {
			version = classified
		}
		residual = strings.TrimSpace(residual[:loc[0]])
	}

	if residual == "" {
		residual = strings.TrimSpace(title)
	}
	return residual, version
}

func classifyVersion(text string) (VersionType, bool) {
	lowered := strings.ToLower(strings.TrimSpace(text))
	for _, entry := range versionKeywords {
		if strings.Contains(lowered, entry.keyword) {
			return entry.version, true
		}
	}
	return VersionOriginal, false
}
