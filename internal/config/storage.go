package config

import (
	"os"
	"sync"
)

type StorageConfig struct {
	ArtifactDir string
	UploadDir   string
	PublicURL   string
	// ConverterURL points at an external DOCX->PDF converter. When empty,
	// generation still succeeds but produces no PDF artifact.
	ConverterURL string
}

var (
	storageConfig *StorageConfig
	storageOnce   sync.Once
)

func LoadStorageConfig() *StorageConfig {
	storageOnce.Do(func() {
		artifactDir := os.Getenv("STORAGE_ARTIFACT_DIR")
		if artifactDir == "" {
			artifactDir = "./storage/artifacts"
		}
		uploadDir := os.Getenv("STORAGE_UPLOAD_DIR")
		if uploadDir == "" {
			uploadDir = "./storage/uploads"
		}
		storageConfig = &StorageConfig{
			ArtifactDir:  artifactDir,
			UploadDir:    uploadDir,
			PublicURL:    os.Getenv("STORAGE_PUBLIC_URL"),
			ConverterURL: os.Getenv("PDF_CONVERTER_URL"),
		}
	})
	return storageConfig
}
