package report

import (
	"errors"
	"log"
)

type Emitter struct {
	OutputDir         string
	UnmatchedMaxChars int
	WriteEnriched     bool
}

type Artifact struct {
	Kind ArtifactKind
	Path string
	// Skipped is set when there was nothing to write.
	Skipped bool
	Err     error
}

type Outcome struct {
	Artifacts []Artifact
}

// Err joins every artifact failure; nil when all artifacts were written or
// skipped.
func (o Outcome) Err() error {
	var errs []error
	for _, a := range o.Artifacts {
		if a.Err != nil {
			errs = append(errs, a.Err)
		}
	}
	return errors.Join(errs...)
}

// Written lists paths that were successfully written.
func (o Outcome) Written() []string {
	var out []string
	for _, a := range o.Artifacts {
		if a.Err == nil && !a.Skipped {
			out = append(out, a.Path)
		}
	}
	return out
}

func (o Outcome) Path(kind ArtifactKind) (string, bool) {
	for _, a := range o.Artifacts {
		if a.Kind == kind && a.Err == nil && !a.Skipped {
			return a.Path, true
		}
	}
	return "", false
}

// Emit writes every artifact independently. The summary report is always
// written; the category map and unmatched samples are skipped when empty.
// A failed artifact never stops the others.
func (e Emitter) Emit(d Data) Outcome {
	var out Outcome

	out.add(e.write(ArtifactSummary, d, func() ([]byte, bool, error) {
		return []byte(RenderSummary(d)), true, nil
	}))
	out.add(e.write(ArtifactCategoryMap, d, func() ([]byte, bool, error) {
		if len(d.Result.Rows) == 0 {
			return nil, false, nil
		}
		data, err := RenderCategoryMap(d.Result.Rows)
		return data, true, err
	}))
	out.add(e.write(ArtifactUnmatched, d, func() ([]byte, bool, error) {
		if len(d.Result.Unmatched) == 0 {
			return nil, false, nil
		}
		return []byte(RenderUnmatched(d.Result.Unmatched, e.UnmatchedMaxChars)), true, nil
	}))
	if e.WriteEnriched {
		out.add(e.write(ArtifactEnriched, d, func() ([]byte, bool, error) {
			if len(d.Result.Tickets) == 0 {
				return nil, false, nil
			}
			data, err := RenderEnriched(d.Result.Tickets)
			return data, true, err
		}))
	}
	return out
}

func (o *Outcome) add(a Artifact) {
	o.Artifacts = append(o.Artifacts, a)
}

func (e Emitter) write(kind ArtifactKind, d Data, render func() ([]byte, bool, error)) Artifact {
	data, ok, err := render()
	if err != nil {
		log.Printf("report %s render error: %v", kind, err)
		return Artifact{Kind: kind, Err: &ArtifactWriteError{Kind: kind, Err: err}}
	}
	if !ok {
		log.Printf("report %s skipped: nothing to write", kind)
		return Artifact{Kind: kind, Skipped: true}
	}
	path, err := writeArtifact(e.OutputDir, kind, d.RunDate, data)
	if err != nil {
		log.Printf("report %s write error: %v", kind, err)
		return Artifact{Kind: kind, Path: path, Err: err}
	}
	log.Printf("report %s written path=%s bytes=%d", kind, path, len(data))
	return Artifact{Kind: kind, Path: path}
}
