package constants_test

import (
	"fmt"
	"path/filepath"

	"github.com/agentstation/achievesync/pkg/constants"
)

// Example shows how the path constants compose into a store file location.
func Example() {
	path := filepath.Join(constants.DefaultDataDir, "12345", "quests"+constants.StoreFileExtension)
	fmt.Println(filepath.ToSlash(path))
	fmt.Printf("batch size %d, retries %d, delay %s\n",
		constants.DefaultBatchSize, constants.DefaultMaxRetries, constants.DefaultRetryDelay)
	// Output:
	// data/12345/quests.json.gz
	// batch size 50, retries 3, delay 5s
}

// Example_permissions shows the standard permissions for created files.
func Example_permissions() {
	fmt.Printf("dirs %o, files %o\n", constants.DirPermissions, constants.FilePermissions)
	// Output: dirs 755, files 644
}
