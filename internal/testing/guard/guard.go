package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("VIPRIDE_TEST_MODE") == "" {
			_ = os.Setenv("VIPRIDE_TEST_MODE", "1")
		}
	})
}
