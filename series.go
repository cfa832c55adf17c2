package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// listSeriesFiles returns the candidate files of a series directory in
// lexical order, skipping the index file. Zero-length files are kept only
// when keepEmpty is set.
func listSeriesFiles(dir string, cfg *Config, keepEmpty bool) ([]string, error) {
	var files []string
	keep := func(path string, info fs.FileInfo) {
		if !info.Mode().IsRegular() || info.Name() == cfg.IndexFile {
			return
		}
		if info.Size() == 0 && !keepEmpty {
			return
		}
		files = append(files, path)
	}

	if cfg.RecursiveScan {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Warnf("Cannot read %s: %v", path, err)
				return nil
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			keep(path, info)
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(files)
		return files, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("could not list series %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		keep(filepath.Join(dir, e.Name()), info)
	}
	return files, nil
}

// Representative is the file a series is classified from, with the two tags
// read from it.
type Representative struct {
	File        string
	Modality    TagResult
	Description TagResult
}

// selectRepresentative picks the first candidate whose Modality lookup did
// not fail. ok is false when no file qualifies.
func selectRepresentative(reader TagReader, dir string, cfg *Config) (rep Representative, ok bool) {
	files, err := listSeriesFiles(dir, cfg, false)
	if err != nil {
		logger.Warnf("%v", err)
		return rep, false
	}
	for _, f := range files {
		mod := reader.Lookup(f, ModalityPath)
		if mod.Status == TagReadError {
			logger.Debugf("Cannot read %s: %v", f, mod.Err)
			continue
		}
		rep = Representative{File: f, Modality: mod}
		rep.Description = reader.Lookup(f, SeriesDescriptionPath)
		return rep, true
	}
	return rep, false
}

// listPatients returns the child directories of the input root, sorted.
func listPatients(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("could not list input root %s: %w", root, err)
	}
	var patients []string
	for _, e := range entries {
		if e.IsDir() {
			patients = append(patients, filepath.Join(root, e.Name()))
		}
	}
	return patients, nil
}

// listSeriesDirs returns every directory below patientDir, patientDir
// included, that directly holds at least one regular file. With recursive
// set a series owns its whole subtree, so nothing below it is listed.
func listSeriesDirs(patientDir string, recursive bool) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(patientDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warnf("Cannot read %s: %v", path, err)
			if d != nil && d.IsDir() && path != patientDir {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil
		}
		for _, e := range entries {
			if e.Type().IsRegular() {
				dirs = append(dirs, path)
				if recursive {
					return fs.SkipDir
				}
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(dirs)
	return dirs, nil
}
