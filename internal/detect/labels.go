package detect

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Labels maps class ids to display names.
type Labels []string

// Name returns the label for id, or "class<id>" when unknown.
func (l Labels) Name(id int) string {
	if id >= 0 && id < len(l) && l[id] != "" {
		return l[id]
	}
	return fmt.Sprintf("class%d", id)
}

// ForClassCount picks the labels to use for a model predicting n classes:
// l itself when non-empty, COCO for 80-class models, otherwise none.
func (l Labels) ForClassCount(n int) Labels {
	if len(l) > 0 {
		return l
	}
	if n == len(COCO) {
		return COCO
	}
	return nil
}

// LoadLabels reads one class name per line. Blank lines and lines starting
// with '#' are ignored.
func LoadLabels(path string) (Labels, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out Labels
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return out, nil
}

// FindLabels looks for a class-name file next to the model: "<model>.names",
// "<model>.txt", then "classes.txt" and "labels.txt" in the model's
// directory. It returns the labels and the file they came from, or empty
// values when no candidate exists.
func FindLabels(modelPath string) (Labels, string, error) {
	stem := strings.TrimSuffix(modelPath, filepath.Ext(modelPath))
	dir := filepath.Dir(modelPath)
	candidates := []string{
		stem + ".names",
		stem + ".txt",
		filepath.Join(dir, "classes.txt"),
		filepath.Join(dir, "labels.txt"),
	}
	for _, p := range candidates {
		labels, err := LoadLabels(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, "", err
		}
		return labels, p, nil
	}
	return nil, "", nil
}

// COCO holds the 80 class names of the stock YOLOv8 detection checkpoints.
var COCO = Labels{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat",
	"dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack",
	"umbrella", "handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball",
	"kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket",
	"bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple",
	"sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair",
	"couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink",
	"refrigerator", "book", "clock", "vase", "scissors", "teddy bear", "hair drier",
	"toothbrush",
}
