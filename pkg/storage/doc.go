// Package storage writes downloaded images into the output directory.
//
// File names come from the final path segment of the resolved image URL
// (FilenameFromURL). Writes go through a temporary file in the same
// directory followed by a rename, so an interrupted download never leaves a
// truncated image under the final name. Whether an existing file is skipped
// or overwritten is the caller's decision: Save always replaces.
//
//	manager, err := storage.NewManager(outputDir)
//	if err != nil {
//	    return err
//	}
//	name := storage.FilenameFromURL(imageURL)
//	if !manager.Exists(name) {
//	    _, err = manager.Save(bytes.NewReader(data), name)
//	}
//
// Every filesystem failure is reported as an errors.ErrorTypeWrite error.
package storage
