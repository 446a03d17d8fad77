// Command detect runs a YOLOv8 ONNX export over an image, a directory of
// images or a video file and writes the annotated frames.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-yolov8/inference"
	"github.com/nvr-ai/go-yolov8/util"
)

var (
	supportedVideoExtensions = []string{".mp4", ".avi", ".mov"}
	supportedImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp"}
)

var boxColor = color.RGBA{0, 255, 0, 0}

func main() {
	var (
		configPath string
		modelPath  string
		imagePath  string
		videoPath  string
		dirPath    string
		outputDir  string
		confidence float64
		iou        float64
		threads    int
		verbose    bool
	)
	flag.StringVar(&configPath, "config", "", "Path to a YAML configuration file")
	flag.StringVar(&modelPath, "model", "", "Path to the YOLOv8 ONNX model (overrides config)")
	flag.StringVar(&imagePath, "image", "", "Path to image file (.jpg, .jpeg, .png, .bmp)")
	flag.StringVar(&videoPath, "video", "", "Path to video file (.mp4, .avi, .mov)")
	flag.StringVar(&dirPath, "dir", "", "Directory of image files processed in frame order")
	flag.StringVar(&outputDir, "output", "detections", "Output directory for annotated frames")
	flag.Float64Var(&confidence, "conf", 0, "Confidence threshold (overrides config)")
	flag.Float64Var(&iou, "iou", 0, "NMS IoU threshold (overrides config)")
	flag.IntVar(&threads, "threads", 0, "ONNX Runtime intra-op threads, 0 for the runtime default")
	flag.BoolVar(&verbose, "v", false, "Enable debug logging")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg := inference.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = inference.LoadConfig(configPath); err != nil {
			log.WithError(err).Fatal("loading configuration")
		}
	}
	if modelPath != "" {
		cfg.ModelPath = modelPath
	}
	if confidence > 0 {
		cfg.ConfidenceThreshold = float32(confidence)
	}
	if iou > 0 {
		cfg.IoUThreshold = float32(iou)
	}
	if err := validateInput(videoPath, imagePath, dirPath); err != nil {
		log.WithError(err).Fatal("invalid input")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		log.WithError(err).Fatal("creating output directory")
	}

	engine, err := inference.NewEngineBuilder().
		WithConfig(cfg).
		WithThreads(threads).
		WithLogger(log).
		Build()
	if err != nil {
		log.WithError(err).Fatal("creating inference engine")
	}
	defer engine.Close()
	predictor := engine.Predictor

	ctx := context.Background()
	switch {
	case imagePath != "":
		err = processImage(ctx, predictor, imagePath, outputDir, log)
	case dirPath != "":
		err = processDirectory(ctx, predictor, dirPath, outputDir, log)
	default:
		err = processVideo(ctx, predictor, videoPath, outputDir, log)
	}
	if err != nil {
		log.WithError(err).Fatal("detection failed")
	}
}

func processImage(ctx context.Context, predictor *inference.Predictor, path, outputDir string, log *logrus.Logger) error {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()
	if mat.Empty() {
		return errors.Errorf("error reading image: %s", path)
	}

	detections, err := detect(ctx, predictor, &mat)
	if err != nil {
		return err
	}
	logDetections(log.WithField("image", path), detections)

	out := filepath.Join(outputDir, "detected_"+filepath.Base(path))
	if !gocv.IMWrite(out, mat) {
		return errors.Errorf("failed to write %s", out)
	}
	log.WithField("path", out).Info("annotated image saved")
	return nil
}

func processDirectory(ctx context.Context, predictor *inference.Predictor, dir, outputDir string, log *logrus.Logger) error {
	files, err := util.LoadDirectoryImageFiles(dir)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"dir": dir, "files": len(files)}).Info("processing directory")

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		mat, err := gocv.IMDecode(f.Data, gocv.IMReadColor)
		if err != nil {
			log.WithError(err).WithField("path", f.Path).Warn("skipping undecodable image")
			continue
		}
		if mat.Empty() {
			log.WithField("path", f.Path).Warn("skipping empty image")
			mat.Close()
			continue
		}

		detections, err := detect(ctx, predictor, &mat)
		if err != nil {
			mat.Close()
			return errors.Wrapf(err, "image %s", f.Path)
		}
		logDetections(log.WithField("image", f.Path), detections)

		out := filepath.Join(outputDir, "detected_"+filepath.Base(f.Path))
		if !gocv.IMWrite(out, mat) {
			log.WithField("path", out).Warn("failed to save image")
		}
		mat.Close()
	}
	return nil
}

func processVideo(ctx context.Context, predictor *inference.Predictor, path, outputDir string, log *logrus.Logger) error {
	capture, err := gocv.OpenVideoCapture(path)
	if err != nil {
		return errors.Wrapf(err, "opening video %s", path)
	}
	defer capture.Close()

	mat := gocv.NewMat()
	defer mat.Close()

	for frame := 0; ; frame++ {
		if ok := capture.Read(&mat); !ok {
			log.WithField("frames", frame).Info("end of video")
			return nil
		}
		if mat.Empty() {
			continue
		}

		detections, err := detect(ctx, predictor, &mat)
		if err != nil {
			return errors.Wrapf(err, "frame %d", frame)
		}
		logDetections(log.WithField("frame", frame), detections)

		if len(detections) > 0 {
			out := filepath.Join(outputDir, fmt.Sprintf("frame_%06d.jpg", frame))
			if !gocv.IMWrite(out, mat) {
				log.WithField("path", out).Warn("failed to save frame")
			}
		}
	}
}

// detect runs the predictor on mat and draws the detections onto it.
func detect(ctx context.Context, predictor *inference.Predictor, mat *gocv.Mat) ([]inference.Detection, error) {
	img, err := mat.ToImage()
	if err != nil {
		return nil, errors.Wrap(err, "converting frame")
	}

	detections, err := predictor.Predict(ctx, img)
	if err != nil {
		return nil, err
	}

	for _, d := range detections {
		rect := image.Rect(
			int(d.Box.X),
			int(d.Box.Y),
			int(d.Box.X+d.Box.Width),
			int(d.Box.Y+d.Box.Height),
		)
		gocv.Rectangle(mat, rect, boxColor, 2)
		label := fmt.Sprintf("%s %.2f", d.Label, d.Score)
		gocv.PutText(mat, label, rect.Min, gocv.FontHersheyPlain, 0.8, boxColor, 2)
	}

	return detections, nil
}

func logDetections(entry *logrus.Entry, detections []inference.Detection) {
	entry.WithField("count", len(detections)).Info("detections")
	for i, d := range detections {
		entry.WithFields(logrus.Fields{
			"n":     i + 1,
			"label": d.Label,
			"score": fmt.Sprintf("%.2f", d.Score),
			"box":   fmt.Sprintf("%.0f,%.0f %.0fx%.0f", d.Box.X, d.Box.Y, d.Box.Width, d.Box.Height),
		}).Debug("detection")
	}
}

// validateInput requires exactly one of videoPath, imagePath and dirPath.
func validateInput(videoPath, imagePath, dirPath string) error {
	set := 0
	for _, p := range []string{videoPath, imagePath, dirPath} {
		if p != "" {
			set++
		}
	}

	switch {
	case set > 1:
		return errors.New("only one of -video, -image or -dir may be given")
	case set == 0:
		return errors.New("one of -video, -image or -dir is required")
	case dirPath != "":
		info, err := os.Stat(dirPath)
		if err != nil {
			return errors.Wrapf(err, "directory not found: %s", dirPath)
		}
		if !info.IsDir() {
			return errors.Errorf("%s is not a directory", dirPath)
		}
		return nil
	case videoPath != "":
		return errors.Wrap(validateFile(videoPath, supportedVideoExtensions), "video")
	default:
		return errors.Wrap(validateFile(imagePath, supportedImageExtensions), "image")
	}
}

// validateFile checks that the file exists and has a supported extension.
func validateFile(path string, supported []string) error {
	if _, err := os.Stat(path); err != nil {
		return errors.Wrapf(err, "file not found: %s", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range supported {
		if ext == s {
			return nil
		}
	}
	return errors.Errorf("unsupported file extension %s, supported: %v", ext, supported)
}
