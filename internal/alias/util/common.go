package util

import (
	"fmt"
	"os"
)

func CloseFileFunc(f *os.File) {
	if err := f.Close(); err != nil {
		fmt.Println(err)
	}
}
