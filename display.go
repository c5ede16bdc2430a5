package lblannotate

// Presentation of the annotated image in the platform image viewer.

import (
	"fmt"
	"image"
	"os"
	"os/exec"
	"regexp"
	"runtime"

	"github.com/disintegration/imaging"
)

// Viewer presents an image to the user.
type Viewer interface {
	Show(img image.Image, title string) error
}

// SystemViewer opens images with the platform's default image viewer.
type SystemViewer struct {
	GOOS   string // The target platform. Defaults to runtime.GOOS.
	TmpDir string // The directory for the image file. Defaults to os.TempDir().

	// start starts cmd without waiting for it. Defaults to (*exec.Cmd).Start.
	start func(cmd *exec.Cmd) error
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Show writes img to a temporary PNG file named after title and hands it to the viewer. It does
// not wait for the viewer to exit; the file is left for the viewer to read.
func (v *SystemViewer) Show(img image.Image, title string) (err error) {
	goos := v.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	f, err := os.CreateTemp(v.TmpDir, unsafeFileChars.ReplaceAllString(title, "_")+"-*.png")
	if err != nil {
		return fmt.Errorf("cannot create the image file: %v", err)
	}
	path := f.Name()
	if err := imaging.Encode(f, img, imaging.PNG); err != nil {
		_ = f.Close()
		return fmt.Errorf("cannot encode %q: %v", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("cannot write %q: %v", path, err)
	}

	name, args, err := viewerCommand(goos, path)
	if err != nil {
		_ = os.Remove(path)
		return err
	}

	start := v.start
	if start == nil {
		start = (*exec.Cmd).Start
	}
	if err := start(exec.Command(name, args...)); err != nil {
		return fmt.Errorf("cannot start the image viewer %q: %v", name, err)
	}

	return nil
}

// viewerCommand returns the command that opens path in the default viewer of goos.
func viewerCommand(goos, path string) (name string, args []string, err error) {
	switch goos {
	case "darwin":
		return "open", []string{path}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", path}, nil
	case "linux", "freebsd", "netbsd", "openbsd", "dragonfly", "solaris", "illumos":
		return "xdg-open", []string{path}, nil
	}
	return "", nil, fmt.Errorf("no image viewer known for platform %q", goos)
}
