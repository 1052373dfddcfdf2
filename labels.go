package detlite

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Labels maps model class indices to label names.
type Labels []string

// LoadLabels reads the labels used to train the Model from the given text
// file.  It should contain one label per line, line order matching class
// index order.
func LoadLabels(file string) (Labels, error) {

	// open the file
	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	defer f.Close()

	// create a scanner to read the file.
	scanner := bufio.NewScanner(f)

	var labels Labels

	// read and trim each line
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		labels = append(labels, line)
	}

	// check for errors during scanning
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return labels, nil
}

// Name returns the label for a class index, or the raw index as a string
// when the index has no label.
func (l Labels) Name(class int) string {

	if class < 0 || class >= len(l) {
		return strconv.Itoa(class)
	}

	return l[class]
}
