package helper

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knights-analytics/hugot"
)

// PrepareModel downloads the model from the HuggingFace hub if it doesn't
// exist locally and returns the local model path. An optional onnxFilePath
// selects the onnx file inside the model repository (e.g. "onnx/model.onnx").
func PrepareModel(modelName string, onnxFilePath ...string) (string, error) {
	modelDir := "./models"
	sanitizedName := strings.ReplaceAll(modelName, "/", "_")
	modelPath := filepath.Join(modelDir, sanitizedName)

	// Check if model exists, if not download it
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		if err := os.MkdirAll(modelDir, 0750); err != nil {
			return "", fmt.Errorf("failed to create model directory: %w", err)
		}
		downloadOptions := hugot.NewDownloadOptions()
		if len(onnxFilePath) > 0 && onnxFilePath[0] != "" {
			downloadOptions.OnnxFilePath = onnxFilePath[0]
		} else {
			downloadOptions.OnnxFilePath = "onnx/model.onnx"
		}
		downloadedPath, err := hugot.DownloadModel(modelName, modelDir, downloadOptions)
		if err != nil {
			return "", fmt.Errorf("failed to download model: %w", err)
		}
		modelPath = downloadedPath
	}

	return modelPath, nil
}
