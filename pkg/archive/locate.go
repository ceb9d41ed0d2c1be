package archive

import (
	"os"
	"path/filepath"
)

// DefaultContainerDir is the Telegram App Store group container on macOS,
// relative to the user's home directory.
const DefaultContainerDir = "Library/Group Containers/6N38VWS5BX.ru.keepcoder.Telegram"

// Paths points at the two source files the reader needs.
type Paths struct {
	Database string // encrypted postbox store (db_sqlite)
	Key      string // wrapped key file (.tempkeyEncrypted)
}

// Locate finds the postbox database and wrapped key under the given container
// root, checking the appstore/ prefix variant first. An empty root defaults to
// the standard group container in the current user's home. Returns ok=false
// when either file is missing.
func Locate(containerRoot string) (Paths, bool) {
	if containerRoot == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, false
		}
		containerRoot = filepath.Join(home, DefaultContainerDir)
	}

	p := Paths{}
	for _, variant := range []string{"appstore", ""} {
		base := filepath.Join(containerRoot, variant)
		if p.Database == "" {
			matches, _ := filepath.Glob(filepath.Join(base, "account-*", "postbox", "db", "db_sqlite"))
			for _, m := range matches {
				if fileExists(m) {
					p.Database = m
					break
				}
			}
		}
		if p.Key == "" {
			if key := filepath.Join(base, ".tempkeyEncrypted"); fileExists(key) {
				p.Key = key
			}
		}
	}
	return p, p.Database != "" && p.Key != ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
