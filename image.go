package main

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/anthonynsimon/bild/transform"
	"github.com/bodgit/sevenzip"
	"github.com/hajimehoshi/ebiten/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/karrick/godirwalk"
	"github.com/nwaples/rardecode"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"k8s.io/klog/v2"

	"lightbox/internal/viewer"
)

const (
	maxResultsPerTick = 4
	placeholderWidth  = 400
	placeholderHeight = 300
)

type ImagePath struct {
	Path        string // Local file path or archive:entry format
	ArchivePath string // Empty for regular files, path to archive for entries
	EntryPath   string // Empty for regular files, path within archive for entries
}

func isArchiveExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip", ".rar", ".7z":
		return true
	default:
		return false
	}
}

func isSupportedExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".webp", ".bmp", ".gif":
		return true
	default:
		return false
	}
}

type loadKind int

const (
	loadFull loadKind = iota
	loadThumb
)

type loadJob struct {
	index int
	path  ImagePath
	kind  loadKind
}

type loadResult struct {
	index int
	path  ImagePath
	kind  loadKind
	size  viewer.Size
	full  image.Image
	thumb image.Image
	err   error
}

// ImageManager decodes gallery images on worker goroutines and hands the
// results to the UI goroutine through Drain. Everything except the job
// and result channels is owned by the UI goroutine.
type ImageManager struct {
	paths     []ImagePath
	thumbSize int
	cover     bool

	full     *lru.Cache[string, *ebiten.Image]
	thumbs   *lru.Cache[string, *ebiten.Image]
	sizes    map[int]viewer.Size
	failed   map[int]bool
	inflight map[int]loadKind

	preloadEnabled bool
	preloadCount   int

	urgent     chan loadJob
	background chan loadJob
	results    chan loadResult
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

func newImageCache(size int) *lru.Cache[string, *ebiten.Image] {
	cache, err := lru.NewWithEvict[string, *ebiten.Image](size, func(_ string, img *ebiten.Image) {
		if img != nil {
			img.Deallocate()
		}
	})
	if err != nil {
		klog.Errorf("failed to create LRU cache of size %d: %v", size, err)
		cache, _ = lru.NewWithEvict[string, *ebiten.Image](16, func(_ string, img *ebiten.Image) {
			if img != nil {
				img.Deallocate()
			}
		})
	}
	return cache
}

// NewImageManager starts the decode workers for paths
func NewImageManager(paths []ImagePath, cfg Config) *ImageManager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &ImageManager{
		paths:          paths,
		thumbSize:      cfg.ThumbnailSize,
		cover:          cfg.ThumbnailFit != "contain",
		full:           newImageCache(cfg.CacheSize),
		thumbs:         newImageCache(max(256, len(paths))),
		sizes:          map[int]viewer.Size{},
		failed:         map[int]bool{},
		inflight:       map[int]loadKind{},
		preloadEnabled: cfg.PreloadEnabled,
		preloadCount:   cfg.PreloadCount,
		urgent:         make(chan loadJob, 16),
		background:     make(chan loadJob, 256),
		results:        make(chan loadResult, 64),
		ctx:            ctx,
		cancel:         cancel,
	}
	workers := min(4, max(1, runtime.NumCPU()-1))
	for range workers {
		m.wg.Add(1)
		go m.worker()
	}
	return m
}

// Stop cancels outstanding decodes and waits for the workers to exit
func (m *ImageManager) Stop() {
	m.cancel()
	m.wg.Wait()
}

// Len returns the number of gallery paths
func (m *ImageManager) Len() int {
	return len(m.paths)
}

// Path returns the gallery path at i
func (m *ImageManager) Path(i int) (ImagePath, bool) {
	if i < 0 || i >= len(m.paths) {
		return ImagePath{}, false
	}
	return m.paths[i], true
}

// NaturalSize reports the decoded size of image i once any decode of it
// has finished. Failed images report the placeholder size.
func (m *ImageManager) NaturalSize(i int) (viewer.Size, bool) {
	s, ok := m.sizes[i]
	return s, ok
}

// Loaded reports whether the full image of i, or its failure placeholder,
// is in the cache. A thumbnail alone does not count.
func (m *ImageManager) Loaded(i int) bool {
	p, ok := m.Path(i)
	return ok && m.full.Contains(p.Path)
}

// Request queues a full decode of image i ahead of background work
func (m *ImageManager) Request(i int) {
	m.enqueue(i, loadFull, m.urgent)
}

// Prefetch warms the neighbours of i in both directions, wrapping
func (m *ImageManager) Prefetch(i int) {
	n := len(m.paths)
	if !m.preloadEnabled || n <= 1 {
		return
	}
	reach := max(1, m.preloadCount/2)
	for d := 1; d <= reach && d < n; d++ {
		m.enqueue(((i+d)%n+n)%n, loadFull, m.background)
		m.enqueue(((i-d)%n+n)%n, loadFull, m.background)
	}
}

// RequestThumb queues a thumbnail decode for the page grid
func (m *ImageManager) RequestThumb(i int) {
	m.enqueue(i, loadThumb, m.background)
}

// Full returns the decoded image, or nil when it is not cached
func (m *ImageManager) Full(i int) *ebiten.Image {
	p, ok := m.Path(i)
	if !ok {
		return nil
	}
	img, ok := m.full.Get(p.Path)
	if !ok {
		return nil
	}
	return img
}

// Thumb returns the thumbnail, or nil when it is not cached
func (m *ImageManager) Thumb(i int) *ebiten.Image {
	p, ok := m.Path(i)
	if !ok {
		return nil
	}
	img, ok := m.thumbs.Get(p.Path)
	if !ok {
		return nil
	}
	return img
}

func (m *ImageManager) enqueue(i int, kind loadKind, queue chan loadJob) {
	p, ok := m.Path(i)
	if !ok {
		return
	}
	if kind == loadFull && m.full.Contains(p.Path) {
		return
	}
	if kind == loadThumb && (m.thumbs.Contains(p.Path) || m.failed[i]) {
		return
	}
	if running, ok := m.inflight[i]; ok && (running == loadFull || running == kind) {
		return
	}
	select {
	case queue <- loadJob{index: i, path: p, kind: kind}:
		m.inflight[i] = kind
	default:
		klog.V(2).Infof("decode queue full, dropping [%d] %s", i+1, p.Path)
	}
}

func (m *ImageManager) worker() {
	defer m.wg.Done()
	for {
		var job loadJob
		select {
		case <-m.ctx.Done():
			return
		case job = <-m.urgent:
		default:
			select {
			case <-m.ctx.Done():
				return
			case job = <-m.urgent:
			case job = <-m.background:
			}
		}

		res := m.decode(job)
		select {
		case m.results <- res:
		case <-m.ctx.Done():
			return
		}
	}
}

func (m *ImageManager) decode(job loadJob) loadResult {
	res := loadResult{index: job.index, path: job.path, kind: job.kind}
	img, err := decodeImage(job.path)
	if err != nil {
		res.err = err
		return res
	}
	b := img.Bounds()
	res.size = viewer.Size{W: float64(b.Dx()), H: float64(b.Dy())}
	res.thumb = makeThumbnail(img, m.thumbSize, m.cover)
	if job.kind == loadFull {
		res.full = img
	}
	return res
}

// Drain moves finished decodes into the caches and calls loaded for every
// image whose size became known. It must run on the UI goroutine.
func (m *ImageManager) Drain(loaded func(i int)) {
	for range maxResultsPerTick {
		select {
		case res := <-m.results:
			m.accept(res)
			if loaded != nil {
				loaded(res.index)
			}
		default:
			return
		}
	}
}

func (m *ImageManager) accept(res loadResult) {
	if m.inflight[res.index] == res.kind {
		delete(m.inflight, res.index)
	}
	key := res.path.Path

	if res.err != nil {
		klog.Warningf("failed to load [%d/%d] %s: %v", res.index+1, len(m.paths), key, res.err)
		m.failed[res.index] = true
		m.sizes[res.index] = viewer.Size{W: placeholderWidth, H: placeholderHeight}
		m.full.Add(key, CreateErrorImage(placeholderWidth, placeholderHeight, key, res.err.Error()))
		m.thumbs.Add(key, CreateErrorImage(placeholderWidth/2, placeholderHeight/2, key, "unreadable"))
		return
	}

	m.sizes[res.index] = res.size
	if res.thumb != nil && !m.thumbs.Contains(key) {
		m.thumbs.Add(key, ebiten.NewImageFromImage(res.thumb))
	}
	if res.full != nil {
		m.full.Add(key, ebiten.NewImageFromImage(res.full))
		klog.V(2).Infof("decoded [%d] %s %.0fx%.0f (cache: %d items)",
			res.index+1, key, res.size.W, res.size.H, m.full.Len())
	}
}

// makeThumbnail downscales img so its short side (cover) or long side
// (contain) is size pixels. Images already small enough are returned as is.
func makeThumbnail(img image.Image, size int, cover bool) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 || size <= 0 {
		return img
	}
	side := max(w, h)
	if cover {
		side = min(w, h)
	}
	scale := float64(size) / float64(side)
	if scale >= 1 {
		return img
	}
	tw := max(1, int(math.Round(float64(w)*scale)))
	th := max(1, int(math.Round(float64(h)*scale)))
	return transform.Resize(img, tw, th, transform.Linear)
}

// Image decoding

func decodeBytes(data []byte, path string) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

func readZipEntry(archivePath, entryPath string) ([]byte, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != entryPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("entry %s not found in %s", entryPath, archivePath)
}

func readRarEntry(archivePath, entryPath string) ([]byte, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := rardecode.NewReader(f, "")
	if err != nil {
		return nil, err
	}
	for {
		header, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if header.Name == entryPath {
			return io.ReadAll(r)
		}
	}
	return nil, fmt.Errorf("entry %s not found in %s", entryPath, archivePath)
}

func read7zEntry(archivePath, entryPath string) ([]byte, error) {
	r, err := sevenzip.OpenReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != entryPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("entry %s not found in %s", entryPath, archivePath)
}

func decodeImage(p ImagePath) (image.Image, error) {
	if p.ArchivePath == "" {
		f, err := os.Open(p.Path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		img, _, err := image.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", p.Path, err)
		}
		return img, nil
	}

	var data []byte
	var err error
	switch ext := strings.ToLower(filepath.Ext(p.ArchivePath)); ext {
	case ".zip":
		data, err = readZipEntry(p.ArchivePath, p.EntryPath)
	case ".rar":
		data, err = readRarEntry(p.ArchivePath, p.EntryPath)
	case ".7z":
		data, err = read7zEntry(p.ArchivePath, p.EntryPath)
	default:
		return nil, fmt.Errorf("unsupported archive format: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p.Path, err)
	}
	return decodeBytes(data, p.EntryPath)
}

// Gallery collection

func archiveEntry(archivePath, name string) ImagePath {
	return ImagePath{
		Path:        archivePath + ":" + name,
		ArchivePath: archivePath,
		EntryPath:   name,
	}
}

func extractImagesFromZip(archivePath string) ([]ImagePath, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var images []ImagePath
	for _, f := range r.File {
		if !f.FileInfo().IsDir() && isSupportedExt(f.Name) {
			images = append(images, archiveEntry(archivePath, f.Name))
		}
	}
	return images, nil
}

func extractImagesFromRar(archivePath string) ([]ImagePath, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := rardecode.NewReader(f, "")
	if err != nil {
		return nil, err
	}

	var images []ImagePath
	for {
		header, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if !header.IsDir && isSupportedExt(header.Name) {
			images = append(images, archiveEntry(archivePath, header.Name))
		}
	}
	return images, nil
}

func extractImagesFrom7z(archivePath string) ([]ImagePath, error) {
	r, err := sevenzip.OpenReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var images []ImagePath
	for _, f := range r.File {
		if !f.FileInfo().IsDir() && isSupportedExt(f.Name) {
			images = append(images, archiveEntry(archivePath, f.Name))
		}
	}
	return images, nil
}

func processArchive(archivePath string, sortMethod int) ([]ImagePath, error) {
	var images []ImagePath
	var err error

	switch ext := strings.ToLower(filepath.Ext(archivePath)); ext {
	case ".zip":
		images, err = extractImagesFromZip(archivePath)
	case ".rar":
		images, err = extractImagesFromRar(archivePath)
	case ".7z":
		images, err = extractImagesFrom7z(archivePath)
	default:
		return nil, fmt.Errorf("unsupported archive format: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("reading archive %s: %w", archivePath, err)
	}
	return sortImagePaths(images, sortMethod), nil
}

func walkDirectory(root string, sortMethod int) ([]ImagePath, error) {
	var found []ImagePath
	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if path != root && strings.HasPrefix(filepath.Base(path), ".") {
				if de.IsDir() {
					return godirwalk.SkipThis
				}
				return nil
			}
			if de.IsDir() {
				return nil
			}
			switch {
			case isSupportedExt(path):
				found = append(found, ImagePath{Path: path})
			case isArchiveExt(path):
				entries, err := processArchive(path, sortMethod)
				if err != nil {
					klog.Warningf("skipping problematic archive %s: %v", path, err)
					return nil
				}
				found = append(found, entries...)
			}
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			klog.Warningf("skipping %s: %v", path, err)
			return godirwalk.SkipNode
		},
		Unsorted: true,
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return sortImagePaths(found, sortMethod), nil
}

// collectImagesFromSameDirectory returns the images next to filePath,
// without descending into subdirectories or archives
func collectImagesFromSameDirectory(filePath string, sortMethod int) ([]ImagePath, error) {
	dir := filepath.Dir(filePath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var images []ImagePath
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		fullPath := filepath.Join(dir, entry.Name())
		if isSupportedExt(fullPath) {
			images = append(images, ImagePath{Path: fullPath})
		}
	}
	return sortImagePaths(images, sortMethod), nil
}

func collectImages(args []string, sortMethod int) ([]ImagePath, error) {
	var list []ImagePath
	for _, p := range args {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		switch {
		case info.IsDir():
			dirImages, err := walkDirectory(p, sortMethod)
			if err != nil {
				return nil, err
			}
			list = append(list, dirImages...)
		case isSupportedExt(p):
			list = append(list, ImagePath{Path: p})
		case isArchiveExt(p):
			entries, err := processArchive(p, sortMethod)
			if err != nil {
				klog.Warningf("skipping problematic archive %s: %v", p, err)
				continue
			}
			list = append(list, entries...)
		}
	}
	return list, nil
}

// collectGallery builds the gallery for the command line. A single image
// argument expands to its directory and start is that image's index, so
// the viewer can open on it; otherwise start is -1.
func collectGallery(args []string, sortMethod int) ([]ImagePath, int, error) {
	if len(args) == 1 && isSupportedExt(args[0]) {
		if info, err := os.Stat(args[0]); err == nil && !info.IsDir() {
			siblings, err := collectImagesFromSameDirectory(args[0], sortMethod)
			if err != nil {
				return nil, -1, err
			}
			want, _ := filepath.Abs(args[0])
			for i, s := range siblings {
				if abs, _ := filepath.Abs(s.Path); abs == want {
					return siblings, i, nil
				}
			}
		}
	}
	list, err := collectImages(args, sortMethod)
	return list, -1, err
}
