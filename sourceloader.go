package tinscript

import "os"

// osLoader implements bytecode.SourceLoader over the local filesystem, the
// default used by ExecScriptFile unless WithCodeblockLoader supplies a
// host-specific one (virtual filesystems, embedded assets, network
// fetches).
type osLoader struct{}

func (osLoader) ReadFileToString(path string) ([]byte, error) {
	return os.ReadFile(path)
}
