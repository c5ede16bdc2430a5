// Detects labels in an image held by a cloud object store, draws the bounding boxes of the
// detected instances onto the image and displays it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/sensorable/lblannotate"
	"golang.org/x/image/font"
)

var (
	provider string // The cloud provider of the labeler and object store.

	bucket        string  // The bucket holding the image.
	imageKey      string  // The object key of the image.
	profile       string  // The credentials profile (aws) or credentials file (gcp).
	region        string  // The region override.
	maxLabels     int     // The max. number of labels returned by the service.
	minConfidence float64 // The min. label confidence in [0, 100].

	fontPath    string  // An optional TrueType/OpenType font for captions.
	fontSize    float64 // The font size in points.
	textMetrics bool    // Size caption backgrounds from font metrics instead of an estimate.
	display     bool    // Open the annotated image in the image viewer.
)

func init() {
	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage of %s:\n", filepath.Base(os.Args[0]))
		_, _ = fmt.Fprintln(os.Stderr, "  aws options:\t-bucket <name> -image <key> [-profile <name>]"+
			" [-region <region>]")
		_, _ = fmt.Fprintln(os.Stderr, "  gcp options:\t-provider gcp -bucket <name> -image <key>"+
			" [-profile <credentials file>] [-region <eu|us>]")
		_, _ = fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}

	flag.StringVar(&provider, "provider", "aws",
		"The cloud `provider` of the labeling service and object store {aws, gcp}")

	// Image arguments.
	flag.StringVar(&bucket, "bucket", bucket, "The `name` of the bucket containing the image")
	flag.StringVar(&imageKey, "image", imageKey,
		"The image `key` (file name including any prefixes) in the bucket")

	// Session arguments.
	flag.StringVar(&profile, "profile", profile,
		"The AWS CLI profile `name` (aws) or the path to a credentials file (gcp); the default"+
			" credentials are used if empty")
	flag.StringVar(&region, "region", region,
		"The `region` to use; overrides the region from the profile or default configuration")

	// Detection arguments.
	flag.IntVar(&maxLabels, "max_labels", 10, "The maximum number of labels to detect")
	flag.Float64Var(&minConfidence, "min_confidence", 75,
		"The minimum confidence level for labels [0, 100]; labels below it are ignored")

	// Rendering arguments.
	flag.StringVar(&fontPath, "font", fontPath,
		"The `path` to a TrueType or OpenType font for captions (built-in font if empty)")
	flag.Float64Var(&fontSize, "font_size", 13, "The caption font size in `points` (with -font)")
	flag.BoolVar(&textMetrics, "text_metrics", true,
		"Size caption backgrounds from the font metrics instead of a fixed estimate")
	flag.BoolVar(&display, "display", true, "Open the annotated image in the image viewer")
}

// parseFlags parses and validates the command line. Invalid arguments exit with status 2.
func parseFlags() {
	printUsageAndExit := func(msg ...interface{}) {
		log.Print(msg...)
		flag.Usage()
		os.Exit(2)
	}

	flag.Parse()

	provider = strings.ToLower(provider)
	if err := validateFlags(); err != nil {
		printUsageAndExit(err)
	}
}

// validateFlags checks the parsed flag values.
func validateFlags() error {
	if provider != "aws" && provider != "gcp" {
		return fmt.Errorf("unsupported provider: %s", provider)
	}
	if bucket == "" || imageKey == "" {
		return errors.New("missing bucket or image argument")
	}
	// The services take the label limit as a 32 bit integer.
	if maxLabels < 1 || maxLabels > math.MaxInt32 {
		return fmt.Errorf("invalid -max_labels, must be in [1, %d]: %d", math.MaxInt32, maxLabels)
	}
	if minConfidence < 0 || minConfidence > 100 {
		return fmt.Errorf("invalid -min_confidence, must be in [0, 100]: %g", minConfidence)
	}
	if fontSize <= 0 {
		return fmt.Errorf("invalid -font_size, must be positive: %g", fontSize)
	}
	return nil
}

func main() {
	parseFlags()

	defer func() {
		if e := recover(); e != nil {
			fmt.Printf("An unexpected error occurred: %v\n%s", e, debug.Stack())
			os.Exit(1)
		}
	}()

	ctx := context.Background()
	session := lblannotate.Session{Profile: profile, Region: region}
	req := lblannotate.Request{
		Bucket:        bucket,
		Key:           imageKey,
		MaxLabels:     maxLabels,
		MinConfidence: minConfidence,
	}

	// Set up the provider clients.
	var annotator lblannotate.Annotator
	var closers []io.Closer
	var regionName string
	var regionSource lblannotate.RegionSource
	var uri string
	switch provider {
	case "gcp":
		s, err := lblannotate.NewGCPSession(ctx, session)
		if err != nil {
			exitWithFailure(lblannotate.ClassifyError(err), req, session)
		}
		labeler, err := lblannotate.NewVisionLabeler(ctx, s)
		if err != nil {
			exitWithFailure(lblannotate.ClassifyError(err), req, session)
		}
		store, err := lblannotate.NewGCSStore(ctx, s)
		if err != nil {
			_ = labeler.Close()
			exitWithFailure(lblannotate.ClassifyError(err), req, session)
		}
		annotator.Labeler, annotator.Store = labeler, store
		closers = append(closers, labeler, store)
		regionName, regionSource = s.EffectiveRegion()
		uri = fmt.Sprintf("gs://%s/%s", bucket, imageKey)
	default:
		s, err := lblannotate.NewAWSSession(ctx, session)
		if err != nil {
			exitWithFailure(lblannotate.ClassifyError(err), req, session)
		}
		annotator.Labeler = lblannotate.NewRekognitionLabeler(s)
		annotator.Store = lblannotate.NewS3Store(s)
		regionName, regionSource = s.EffectiveRegion()
		uri = fmt.Sprintf("s3://%s/%s", bucket, imageKey)
	}

	fmt.Println("Attempting to access image:", uri)
	fmt.Println("Using profile:", session.ProfileName())
	printRegion(os.Stdout, regionName, regionSource)

	annotator.Renderer = &lblannotate.Renderer{
		Face:        captionFace(fontPath, fontSize),
		MeasureText: textMetrics,
	}

	res := annotator.Analyze(ctx, req)
	for _, c := range closers {
		if err := c.Close(); err != nil {
			log.Print("Failed to close a client: ", err)
		}
	}

	if len(res.Labels) > 0 {
		printLabels(os.Stdout, res.Labels, req)
	}

	switch res.Outcome {
	case lblannotate.NoLabels:
		fmt.Println("No labels detected or labels did not meet the minimum confidence level.")
		return
	case lblannotate.Failed:
		exitWithFailure(res.Failure, req, session)
	}

	for _, b := range res.Stats.Drawn {
		fmt.Printf("  Drew box for: %s (Confidence: %.2f%%) at [%.0f,%.0f,%.0f,%.0f] with color %s\n",
			b.Label, b.Confidence, b.Rect.Left, b.Rect.Top, b.Rect.Width, b.Rect.Height, b.Color)
	}
	if res.Stats.NoBoxes() {
		fmt.Println("No bounding boxes were generated as no instances with bounding box data were" +
			" found.")
	}

	if !display {
		return
	}
	fmt.Println("Displaying image with bounding boxes in the image viewer...")
	viewer := &lblannotate.SystemViewer{}
	if err := viewer.Show(res.Image, "Analyzed "+filepath.Base(imageKey)); err != nil {
		log.Print("Failed to display the image: ", err)
		os.Exit(1)
	}
}

// captionFace returns the font at path for captions. A font that cannot be loaded is not fatal:
// a warning is logged and the built-in font is used.
func captionFace(path string, size float64) font.Face {
	if path == "" {
		return lblannotate.DefaultFace
	}
	face, err := lblannotate.LoadFontFace(path, size)
	if err != nil {
		log.Printf("Warning: %v; drawing captions with the built-in font", err)
		return lblannotate.DefaultFace
	}
	return face
}

// printRegion reports the effective region of the session.
func printRegion(w io.Writer, name string, source lblannotate.RegionSource) {
	switch source {
	case lblannotate.RegionSpecified:
		_, _ = fmt.Fprintln(w, "Using region (specified):", name)
	case lblannotate.RegionResolved:
		_, _ = fmt.Fprintln(w, "Using region (from profile/default):", name)
	default:
		log.Print("Warning: region not specified and not found in the profile or defaults;" +
			" the services may use a default region or fail")
		_, _ = fmt.Fprintln(w, "Region: not explicitly specified, relying on SDK defaults.")
	}
}

// printLabels lists the labels detected for req.
func printLabels(w io.Writer, labels []lblannotate.Label, req lblannotate.Request) {
	_, _ = fmt.Fprintf(w, "\n--- Detected Labels (Top %d or fewer, Min Confidence: %g%%) ---\n",
		req.MaxLabels, req.MinConfidence)
	for _, l := range labels {
		_, _ = fmt.Fprintln(w, "- Label:", l.Name)
		_, _ = fmt.Fprintf(w, "  Confidence: %.2f%%\n", l.Confidence)
		if len(l.Instances) > 0 {
			_, _ = fmt.Fprintln(w, "  Instances:", len(l.Instances))
		}
		if len(l.Parents) > 0 {
			_, _ = fmt.Fprintln(w, "  Parents:", strings.Join(l.Parents, ", "))
		}
	}
	_, _ = fmt.Fprintln(w, "--- End of Labels ---")
}

// exitWithFailure prints the messages for f and exits with status 1.
func exitWithFailure(f *lblannotate.Failure, req lblannotate.Request, s lblannotate.Session) {
	for _, line := range failureMessages(f, req, s) {
		fmt.Println(line)
	}
	os.Exit(1)
}
