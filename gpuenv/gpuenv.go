// Package gpuenv locates CUDA toolkit and cuDNN installations so their DLL
// directories can be put on the launched application's PATH.
//
// Lookup order for CUDA: CUDA_PATH, then CUDA_PATH_V* variables, then the
// highest v* directory under the configured roots. For cuDNN: CUDNN_PATH,
// then the highest v* directory under its roots, preferring the highest
// CUDA-version subdirectory of bin when one exists.
package gpuenv

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/mod/semver"
)

// Install describes one detected toolkit.
type Install struct {
	Bin         string `json:"bin"`
	Version     string `json:"version,omitempty"`
	CUDAVersion string `json:"cudaVersion,omitempty"`
}

type Result struct {
	CUDA  *Install `json:"cuda,omitempty"`
	CUDNN *Install `json:"cudnn,omitempty"`
}

// Bins returns the bin directories found, CUDA first.
func (r Result) Bins() []string {
	var bins []string
	if r.CUDA != nil {
		bins = append(bins, r.CUDA.Bin)
	}
	if r.CUDNN != nil {
		bins = append(bins, r.CUDNN.Bin)
	}
	return bins
}

type Prober struct {
	Environ    []string
	CUDARoots  []string
	CUDNNRoots []string
}

func NewProber(cudaRoots, cudnnRoots []string) Prober {
	return Prober{
		Environ:    os.Environ(),
		CUDARoots:  cudaRoots,
		CUDNNRoots: cudnnRoots,
	}
}

func (p Prober) Probe() Result {
	var r Result
	if cuda, ok := p.FindCUDA(); ok {
		r.CUDA = &cuda
	}
	if cudnn, ok := p.FindCUDNN(); ok {
		r.CUDNN = &cudnn
	}
	return r
}

func (p Prober) lookup(key string) (string, bool) {
	for _, kv := range p.Environ {
		k, v, ok := strings.Cut(kv, "=")
		if ok && strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

func (p Prober) FindCUDA() (Install, bool) {
	if root, ok := p.lookup("CUDA_PATH"); ok {
		if bin := binDir(root); bin != "" {
			return Install{Bin: bin, Version: trimV(filepath.Base(root))}, true
		}
	}

	var candidates []Install
	for _, kv := range p.Environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(strings.ToUpper(k), "CUDA_PATH_V") {
			continue
		}
		if bin := binDir(v); bin != "" {
			version := strings.ReplaceAll(k[len("CUDA_PATH_V"):], "_", ".")
			candidates = append(candidates, Install{Bin: bin, Version: version})
		}
	}
	if best, ok := highest(candidates); ok {
		return best, true
	}

	candidates = candidates[:0]
	for _, base := range p.CUDARoots {
		for _, dir := range subdirs(base) {
			if bin := binDir(dir); bin != "" {
				candidates = append(candidates, Install{Bin: bin, Version: trimV(filepath.Base(dir))})
			}
		}
	}
	return highest(candidates)
}

var cudaVersionDir = regexp.MustCompile(`^\d+(\.\d+)*$`)

func (p Prober) FindCUDNN() (Install, bool) {
	if root, ok := p.lookup("CUDNN_PATH"); ok {
		if bin := binDir(root); bin != "" {
			return Install{Bin: bin}, true
		}
	}

	var candidates []Install
	for _, base := range p.CUDNNRoots {
		for _, dir := range subdirs(base) {
			bin := binDir(dir)
			if bin == "" {
				continue
			}
			install := Install{Bin: bin, Version: trimV(filepath.Base(dir))}

			// Newer cuDNN layouts nest one bin directory per CUDA version.
			var nested []Install
			for _, sub := range subdirs(bin) {
				name := filepath.Base(sub)
				if cudaVersionDir.MatchString(name) {
					nested = append(nested, Install{Bin: sub, Version: name})
				}
			}
			if best, ok := highest(nested); ok {
				install.Bin = best.Bin
				install.CUDAVersion = best.Version
			}
			candidates = append(candidates, install)
		}
	}

	if len(candidates) == 0 {
		return Install{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if c := compareVersions(candidates[i].Version, candidates[j].Version); c != 0 {
			return c > 0
		}
		return compareVersions(candidates[i].CUDAVersion, candidates[j].CUDAVersion) > 0
	})
	return candidates[0], true
}

func highest(candidates []Install) (Install, bool) {
	if len(candidates) == 0 {
		return Install{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if compareVersions(c.Version, best.Version) > 0 {
			best = c
		}
	}
	return best, true
}

// compareVersions orders dotted numeric versions; anything unparsable sorts
// below every valid version.
func compareVersions(a, b string) int {
	return semver.Compare(canonical(a), canonical(b))
}

func canonical(v string) string {
	v = "v" + trimV(v)
	if !semver.IsValid(v) {
		return ""
	}
	return v
}

func trimV(name string) string {
	return strings.TrimPrefix(strings.TrimPrefix(name, "v"), "V")
}

func binDir(root string) string {
	if root == "" {
		return ""
	}
	bin := filepath.Join(root, "bin")
	if info, err := os.Stat(bin); err == nil && info.IsDir() {
		return bin
	}
	return ""
}

func subdirs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(dir, e.Name()))
		}
	}
	return dirs
}
