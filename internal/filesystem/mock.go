package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const maxSymlinkHops = 40

// MockFileSystem provides in-memory filesystem for testing
type MockFileSystem struct {
	mu         sync.Mutex
	files      map[string]*MockFile
	currentDir string
}

// MockFile represents a file, directory or symlink in the mock filesystem
type MockFile struct {
	Content []byte
	Mode    fs.FileMode
	ModTime time.Time
	IsDir   bool

	// Target is set for symlinks only
	Target string
}

// IsSymlink reports whether the entry is a symlink
func (f *MockFile) IsSymlink() bool {
	return f.Mode&fs.ModeSymlink != 0
}

// mockFileInfo implements fs.FileInfo
type mockFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() fs.FileMode  { return m.mode }
func (m *mockFileInfo) ModTime() time.Time { return m.modTime }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() interface{}   { return nil }

// mockDirEntry implements fs.DirEntry
type mockDirEntry struct {
	info fs.FileInfo
}

func (m *mockDirEntry) Name() string               { return m.info.Name() }
func (m *mockDirEntry) IsDir() bool                { return m.info.IsDir() }
func (m *mockDirEntry) Type() fs.FileMode          { return m.info.Mode().Type() }
func (m *mockDirEntry) Info() (fs.FileInfo, error) { return m.info, nil }

// NewMockFileSystem creates a new MockFileSystem
func NewMockFileSystem() *MockFileSystem {
	mfs := &MockFileSystem{
		files:      make(map[string]*MockFile),
		currentDir: "/workspace",
	}
	mfs.files["/"] = &MockFile{Mode: 0755 | fs.ModeDir, ModTime: time.Now(), IsDir: true}
	return mfs
}

// AddFile adds a file to the mock filesystem
func (mfs *MockFileSystem) AddFile(path string, content []byte) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	cleanPath := filepath.Clean(path)
	mfs.addParents(cleanPath)
	mfs.files[cleanPath] = &MockFile{
		Content: content,
		Mode:    0644,
		ModTime: time.Now(),
	}
}

// AddDir adds a directory to the mock filesystem
func (mfs *MockFileSystem) AddDir(path string) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	cleanPath := filepath.Clean(path)
	mfs.addParents(cleanPath)
	if _, exists := mfs.files[cleanPath]; !exists {
		mfs.files[cleanPath] = &MockFile{
			Mode:    0755 | fs.ModeDir,
			ModTime: time.Now(),
			IsDir:   true,
		}
	}
}

// AddSymlink adds a symlink pointing at target
func (mfs *MockFileSystem) AddSymlink(target, path string) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	cleanPath := filepath.Clean(path)
	mfs.addParents(cleanPath)
	mfs.files[cleanPath] = &MockFile{
		Mode:    0777 | fs.ModeSymlink,
		ModTime: time.Now(),
		Target:  target,
	}
}

func (mfs *MockFileSystem) addParents(cleanPath string) {
	dir := filepath.Dir(cleanPath)
	for dir != "." && dir != cleanPath {
		if _, exists := mfs.files[dir]; !exists {
			mfs.files[dir] = &MockFile{
				Mode:    0755 | fs.ModeDir,
				ModTime: time.Now(),
				IsDir:   true,
			}
		}
		if dir == "/" {
			break
		}
		cleanPath = dir
		dir = filepath.Dir(dir)
	}
}

// resolve follows symlinks on the final path component.
func (mfs *MockFileSystem) resolve(path string) (string, *MockFile, error) {
	current := filepath.Clean(path)
	for hops := 0; hops < maxSymlinkHops; hops++ {
		file, exists := mfs.files[current]
		if !exists {
			return current, nil, fs.ErrNotExist
		}
		if !file.IsSymlink() {
			return current, file, nil
		}
		target := file.Target
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(current), target)
		}
		current = filepath.Clean(target)
	}
	return current, nil, errors.New("too many levels of symbolic links")
}

func (mfs *MockFileSystem) parentExists(cleanPath string) error {
	dir := filepath.Dir(cleanPath)
	if dir == "." || dir == cleanPath {
		return nil
	}
	_, parent, err := mfs.resolve(dir)
	if err != nil {
		return err
	}
	if !parent.IsDir {
		return errors.New("not a directory")
	}
	return nil
}

func (mfs *MockFileSystem) ReadFile(path string) ([]byte, error) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	_, file, err := mfs.resolve(path)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: path, Err: err}
	}
	if file.IsDir {
		return nil, errors.New("is a directory")
	}
	return file.Content, nil
}

func (mfs *MockFileSystem) WriteFile(path string, data []byte, perm fs.FileMode) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	cleanPath := filepath.Clean(path)
	if err := mfs.parentExists(cleanPath); err != nil {
		return &fs.PathError{Op: "open", Path: path, Err: err}
	}

	target, existing, err := mfs.resolve(cleanPath)
	if err == nil && existing.IsDir {
		return &fs.PathError{Op: "open", Path: path, Err: errors.New("is a directory")}
	}
	if err != nil {
		target = cleanPath
		if link, ok := mfs.files[cleanPath]; ok && link.IsSymlink() {
			// dangling symlink: write through to its target
			target, _, _ = mfs.resolve(cleanPath)
		}
	}

	mode := perm
	if existing != nil {
		mode = existing.Mode
	}
	mfs.files[target] = &MockFile{
		Content: data,
		Mode:    mode,
		ModTime: time.Now(),
	}
	return nil
}

func (mfs *MockFileSystem) Remove(path string) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	cleanPath := filepath.Clean(path)
	file, exists := mfs.files[cleanPath]
	if !exists {
		return &fs.PathError{Op: "remove", Path: path, Err: fs.ErrNotExist}
	}
	if file.IsDir && len(mfs.children(cleanPath)) > 0 {
		return &fs.PathError{Op: "remove", Path: path, Err: errors.New("directory not empty")}
	}
	delete(mfs.files, cleanPath)
	return nil
}

func (mfs *MockFileSystem) RemoveAll(path string) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	cleanPath := filepath.Clean(path)
	for p := range mfs.files {
		if p == cleanPath || strings.HasPrefix(p, cleanPath+string(filepath.Separator)) {
			delete(mfs.files, p)
		}
	}
	return nil
}

func (mfs *MockFileSystem) Rename(oldpath, newpath string) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	cleanOld := filepath.Clean(oldpath)
	cleanNew := filepath.Clean(newpath)
	if _, exists := mfs.files[cleanOld]; !exists {
		return &fs.PathError{Op: "rename", Path: oldpath, Err: fs.ErrNotExist}
	}
	if err := mfs.parentExists(cleanNew); err != nil {
		return &fs.PathError{Op: "rename", Path: newpath, Err: err}
	}
	if existing, exists := mfs.files[cleanNew]; exists && existing.IsDir {
		return &fs.PathError{Op: "rename", Path: newpath, Err: fs.ErrExist}
	}

	moved := make(map[string]*MockFile)
	for p, f := range mfs.files {
		if p == cleanOld || strings.HasPrefix(p, cleanOld+string(filepath.Separator)) {
			moved[cleanNew+strings.TrimPrefix(p, cleanOld)] = f
			delete(mfs.files, p)
		}
	}
	for p, f := range moved {
		mfs.files[p] = f
	}
	return nil
}

func (mfs *MockFileSystem) Chmod(path string, perm fs.FileMode) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	_, file, err := mfs.resolve(path)
	if err != nil {
		return &fs.PathError{Op: "chmod", Path: path, Err: err}
	}
	file.Mode = (file.Mode & fs.ModeType) | perm.Perm()
	return nil
}

func (mfs *MockFileSystem) children(cleanPath string) []string {
	var out []string
	for p := range mfs.files {
		if p != cleanPath && filepath.Dir(p) == cleanPath {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func (mfs *MockFileSystem) ReadDir(path string) ([]fs.DirEntry, error) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	resolved, file, err := mfs.resolve(path)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: path, Err: err}
	}
	if !file.IsDir {
		return nil, errors.New("not a directory")
	}

	var entries []fs.DirEntry
	for _, p := range mfs.children(resolved) {
		entries = append(entries, &mockDirEntry{info: mfs.info(p, mfs.files[p])})
	}
	return entries, nil
}

func (mfs *MockFileSystem) Mkdir(path string, perm fs.FileMode) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	cleanPath := filepath.Clean(path)
	if _, exists := mfs.files[cleanPath]; exists {
		return &fs.PathError{Op: "mkdir", Path: path, Err: fs.ErrExist}
	}
	if err := mfs.parentExists(cleanPath); err != nil {
		return &fs.PathError{Op: "mkdir", Path: path, Err: err}
	}
	mfs.files[cleanPath] = &MockFile{
		Mode:    perm | fs.ModeDir,
		ModTime: time.Now(),
		IsDir:   true,
	}
	return nil
}

func (mfs *MockFileSystem) MkdirAll(path string, perm fs.FileMode) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	cleanPath := filepath.Clean(path)
	parts := strings.Split(cleanPath, string(filepath.Separator))

	current := ""
	for _, part := range parts {
		if part == "" {
			continue
		}
		if current == "" {
			current = string(filepath.Separator) + part
		} else {
			current = filepath.Join(current, part)
		}

		if existing, exists := mfs.files[current]; exists {
			if _, resolved, err := mfs.resolve(current); err == nil && resolved.IsDir {
				continue
			}
			if !existing.IsDir {
				return &fs.PathError{Op: "mkdir", Path: current, Err: errors.New("not a directory")}
			}
			continue
		}
		mfs.files[current] = &MockFile{
			Mode:    perm | fs.ModeDir,
			ModTime: time.Now(),
			IsDir:   true,
		}
	}
	return nil
}

func (mfs *MockFileSystem) Symlink(target, link string) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	cleanPath := filepath.Clean(link)
	if _, exists := mfs.files[cleanPath]; exists {
		return &os.LinkError{Op: "symlink", Old: target, New: link, Err: fs.ErrExist}
	}
	if err := mfs.parentExists(cleanPath); err != nil {
		return &os.LinkError{Op: "symlink", Old: target, New: link, Err: err}
	}
	mfs.files[cleanPath] = &MockFile{
		Mode:    0777 | fs.ModeSymlink,
		ModTime: time.Now(),
		Target:  target,
	}
	return nil
}

func (mfs *MockFileSystem) Readlink(path string) (string, error) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	file, exists := mfs.files[filepath.Clean(path)]
	if !exists {
		return "", &fs.PathError{Op: "readlink", Path: path, Err: fs.ErrNotExist}
	}
	if !file.IsSymlink() {
		return "", &fs.PathError{Op: "readlink", Path: path, Err: fs.ErrInvalid}
	}
	return file.Target, nil
}

func (mfs *MockFileSystem) info(path string, file *MockFile) *mockFileInfo {
	return &mockFileInfo{
		name:    filepath.Base(path),
		size:    int64(len(file.Content)),
		mode:    file.Mode,
		modTime: file.ModTime,
		isDir:   file.IsDir,
	}
}

func (mfs *MockFileSystem) Stat(path string) (fs.FileInfo, error) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	_, file, err := mfs.resolve(path)
	if err != nil {
		return nil, &fs.PathError{Op: "stat", Path: path, Err: err}
	}
	return mfs.info(path, file), nil
}

func (mfs *MockFileSystem) Lstat(path string) (fs.FileInfo, error) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	file, exists := mfs.files[filepath.Clean(path)]
	if !exists {
		return nil, &fs.PathError{Op: "lstat", Path: path, Err: fs.ErrNotExist}
	}
	return mfs.info(path, file), nil
}

func (mfs *MockFileSystem) Exists(path string) bool {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	_, exists := mfs.files[filepath.Clean(path)]
	return exists
}

func (mfs *MockFileSystem) Getwd() (string, error) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	return mfs.currentDir, nil
}

func (mfs *MockFileSystem) WalkDir(root string, fn fs.WalkDirFunc) error {
	cleanRoot := filepath.Clean(root)

	// snapshot under the lock so fn may call back into the filesystem
	mfs.mu.Lock()
	if _, exists := mfs.files[cleanRoot]; !exists {
		mfs.mu.Unlock()
		return fs.ErrNotExist
	}

	var paths []string
	for p := range mfs.files {
		if p == cleanRoot || strings.HasPrefix(p, cleanRoot+string(filepath.Separator)) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	entries := make([]*mockDirEntry, len(paths))
	for i, p := range paths {
		entries[i] = &mockDirEntry{info: mfs.info(p, mfs.files[p])}
	}
	mfs.mu.Unlock()

	var skipped []string
	for i, p := range paths {
		if isUnderAny(p, skipped) {
			continue
		}

		entry := entries[i]
		if err := fn(p, entry, nil); err != nil {
			if err == filepath.SkipDir && entry.IsDir() {
				skipped = append(skipped, p)
				continue
			}
			return err
		}
	}

	return nil
}

func isUnderAny(p string, dirs []string) bool {
	for _, dir := range dirs {
		if strings.HasPrefix(p, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (mfs *MockFileSystem) Glob(pattern string) ([]string, error) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	var matches []string

	for p := range mfs.files {
		matched, err := filepath.Match(pattern, p)
		if err != nil {
			return nil, err
		}
		if matched {
			matches = append(matches, p)
		}
	}

	sort.Strings(matches)
	return matches, nil
}

// SetCurrentDir sets the current working directory for the mock
func (mfs *MockFileSystem) SetCurrentDir(dir string) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	mfs.currentDir = dir
}

// GetFiles returns all files in the mock filesystem (for debugging)
func (mfs *MockFileSystem) GetFiles() map[string]*MockFile {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	return mfs.files
}

// PrintTree prints the filesystem tree (for debugging)
func (mfs *MockFileSystem) PrintTree() {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	var paths []string
	for p := range mfs.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		file := mfs.files[p]
		marker := "📄"
		switch {
		case file.IsDir:
			marker = "📁"
		case file.IsSymlink():
			marker = "🔗"
		}
		fmt.Printf("%s %s\n", marker, p)
	}
}
