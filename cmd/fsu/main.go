// Command fsu unpacks an archive's contents to a directory on disk,
// exercising the vfs package's archive descent and directory iteration the
// way a real caller would, not just a test harness. Grounded on
// tools/fsu.c's "unpack" subcommand in the original C implementation.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/vfscore/vfs"
	"github.com/vfscore/vfs/backend/stdio"
	"github.com/vfscore/vfs/vfscommon"
)

func main() {
	pflag.Usage = printUsage
	pflag.Parse()

	args := pflag.Args()
	if len(args) != 3 || args[0] != "unpack" {
		printUsage()
		os.Exit(1)
	}

	if err := unpack(args[1], args[2]); err != nil {
		fmt.Fprintln(os.Stderr, "fsu:", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: fsu unpack <archive file> <output directory>")
	fmt.Fprintln(os.Stderr, "  Unpacks the contents of an archive to the specified output path.")
}

// unpack roots a read-only FS at archivePath's directory and a writable FS
// at outDir, then walks the archive via archive descent (opening archivePath
// itself as the root of the walk) and copies every entry across.
func unpack(archivePath, outDir string) error {
	ctx := context.Background()

	archiveDir := filepath.Dir(archivePath)
	archiveName := filepath.Base(archivePath)

	srcBackend, err := stdio.New(archiveDir)
	if err != nil {
		return fmt.Errorf("open archive directory: %w", err)
	}
	src := vfs.New(srcBackend)
	src.RegisterZip()
	defer src.Close()

	if err := os.MkdirAll(outDir, 0o777); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	dstBackend, err := stdio.New(outDir)
	if err != nil {
		return fmt.Errorf("open output directory: %w", err)
	}
	dst := vfs.New(dstBackend)
	defer dst.Close()
	if err := dst.Mount("", "", vfscommon.MountHighest, true); err != nil {
		return fmt.Errorf("mount output directory for writing: %w", err)
	}

	return unpackDir(ctx, src, dst, archiveName, "")
}

// unpackDir mirrors tools/fsu.c's unpack_iterator: list srcPath, recreate
// each directory under dstPath and copy each file's bytes across.
func unpackDir(ctx context.Context, src, dst *vfs.FS, srcPath, dstPath string) error {
	it, err := src.First(ctx, srcPath, vfscommon.ModeRead)
	if err != nil {
		return fmt.Errorf("list %s: %w", srcPath, err)
	}
	defer it.Close()

	for {
		e, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		childSrc := joinPath(srcPath, e.Name)
		childDst := joinPath(dstPath, e.Name)

		if e.Info.IsDir {
			fmt.Println("Directory:", childDst)
			if err := dst.Mkdir(ctx, childDst); err != nil {
				return fmt.Errorf("mkdir %s: %w", childDst, err)
			}
			if err := unpackDir(ctx, src, dst, childSrc, childDst); err != nil {
				return err
			}
			continue
		}

		fmt.Println("File:", childDst)
		if err := copyFile(ctx, src, dst, childSrc, childDst); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(ctx context.Context, src, dst *vfs.FS, srcPath, dstPath string) error {
	in, err := src.Open(ctx, srcPath, vfscommon.ModeRead)
	if err != nil {
		return fmt.Errorf("open %s: %w", srcPath, err)
	}
	defer in.Close()

	out, err := dst.Open(ctx, dstPath, vfscommon.ModeWrite|vfscommon.ModeTruncate)
	if err != nil {
		return fmt.Errorf("open %s: %w", dstPath, err)
	}
	defer out.Close()

	buf := make([]byte, 64*1024)
	for {
		n, rerr := in.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if rerr == vfscommon.ErrAtEnd {
			return nil
		}
		if rerr != nil {
			return rerr
		}
		if n == 0 {
			return nil
		}
	}
}

func joinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}
