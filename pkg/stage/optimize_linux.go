package stage

import (
	"os"

	"golang.org/x/sys/unix"
)

func init() {
	readOptimizations = append(readOptimizations,
		readOptimization{
			name: "FADV_SEQUENTIAL",
			apply: func(f *os.File, info os.FileInfo) error {
				if !info.Mode().IsRegular() {
					return os.ErrInvalid
				}
				return unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
			},
		},
		readOptimization{
			// grow a piped input, halving the request until the kernel accepts it
			name: "F_SETPIPE_SZ",
			apply: func(f *os.File, info os.FileInfo) (err error) {
				if info.Mode()&os.ModeNamedPipe == 0 {
					return os.ErrInvalid
				}
				for size := 32 * 1024 * 1024; size > 512; size /= 2 {
					if _, err = unix.FcntlInt(f.Fd(), unix.F_SETPIPE_SZ, size); err == nil {
						return nil
					}
				}
				return err
			},
		},
	)
}
