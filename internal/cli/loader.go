package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/aqlgen/internal/compiler"
)

// LoadMode controls how errors are handled during loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Error codes shared by all commands. Query validation codes (E1xx) come
// from the compiler.
const (
	ErrCodeGeneric         = "E001" // Generic/unknown error
	ErrCodeScanError       = "E002" // Directory scan error
	ErrCodeNoFiles         = "E003" // No query files found
	ErrCodeLoadFailed      = "E004" // CUE load failed
	ErrCodeNotFound        = "E005" // Path not found
	ErrCodeBuildFailed     = "E006" // CUE build failed
	ErrCodeWriteFailed     = "E007" // File write error
	ErrCodeParseFailed     = "E008" // YAML parse error
	ErrCodeCompileFailed   = "E009" // Query definition is invalid
	ErrCodeTranslateFailed = "E010" // Query did not translate
	ErrCodeNamingConfig    = "E011" // Naming config unreadable
	ErrCodeJournal         = "E012" // Journal unreadable
)

// LoadResult contains the queries read from a file or directory.
type LoadResult struct {
	Queries   []*compiler.QuerySpec
	FileCount int
}

// LoadError is an error that occurred while loading queries.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Line returns the line of Pos, or 0.
func (e *LoadError) Line() int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

// LoadQueries reads query definitions from path. A directory is loaded as
// one CUE instance from its .cue files plus every .yaml and .yml file; a
// file is loaded by its extension. A nil result means nothing could be
// loaded.
func LoadQueries(path string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing %s: %v", path, err)}}
	}

	var cueFiles, yamlFiles []string
	if info.IsDir() {
		cueFiles, yamlFiles, err = FindQueryFiles(path)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
		}
	} else {
		switch filepath.Ext(path) {
		case ".cue":
			cueFiles = []string{path}
		case ".yaml", ".yml":
			yamlFiles = []string{path}
		}
	}
	if len(cueFiles) == 0 && len(yamlFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE or YAML files found in %s", path)}}
	}

	result := &LoadResult{FileCount: len(cueFiles) + len(yamlFiles)}
	var errs []error
	add := func(err error) bool {
		errs = append(errs, err)
		return mode == LoadModeFailFast
	}

	if len(cueFiles) > 0 {
		value, err := loadCUE(path, info.IsDir())
		if err != nil {
			return nil, []error{err}
		}
		specs, compileErrs := compiler.CompileQueries(value)
		result.Queries = append(result.Queries, specs...)
		for _, e := range compileErrs {
			if add(convertCompileError(e)) {
				return result, errs
			}
		}
	}

	for _, file := range yamlFiles {
		data, err := os.ReadFile(file)
		if err != nil {
			if add(&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", file, err)}) {
				return result, errs
			}
			continue
		}
		specs, err := compiler.ParseYAML(data)
		if err != nil {
			if add(&LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("%s: %v", file, err)}) {
				return result, errs
			}
			continue
		}
		result.Queries = append(result.Queries, specs...)
	}

	if len(result.Queries) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no queries found"})
	}
	return result, errs
}

func loadCUE(path string, dir bool) (cue.Value, error) {
	ctx := cuecontext.New()
	if !dir {
		data, err := os.ReadFile(path)
		if err != nil {
			return cue.Value{}, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)}
		}
		value := ctx.CompileBytes(data, cue.Filename(path))
		if err := value.Err(); err != nil {
			return cue.Value{}, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
		}
		return value, nil
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: path})
	if len(instances) == 0 {
		return cue.Value{}, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}
	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return cue.Value{}, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}
	return value, nil
}

// FindQueryFiles returns the .cue and the YAML files directly inside
// dir, sorted by name. Subdirectories are not scanned; they hold
// scenarios and golden files.
func FindQueryFiles(dir string) (cueFiles, yamlFiles []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		switch filepath.Ext(e.Name()) {
		case ".cue":
			cueFiles = append(cueFiles, path)
		case ".yaml", ".yml":
			yamlFiles = append(yamlFiles, path)
		}
	}
	slices.Sort(cueFiles)
	slices.Sort(yamlFiles)
	return cueFiles, yamlFiles, nil
}

func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeCompileFailed,
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}

// toCLIErrors converts load errors for output.
func toCLIErrors(errs []error) []CLIError {
	out := make([]CLIError, 0, len(errs))
	for _, err := range errs {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			out = append(out, CLIError{Code: loadErr.Code, Message: loadErr.Error()})
			continue
		}
		out = append(out, CLIError{Code: ErrCodeGeneric, Message: err.Error()})
	}
	return out
}
