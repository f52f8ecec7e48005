package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/barasher/go-exiftool"
	"k8s.io/klog/v2"

	"lightbox/internal/viewer"
)

// metadataResult carries the metadata of one gallery item back to the UI
// goroutine
type metadataResult struct {
	index int
	meta  viewer.Metadata
}

// readMetadata extracts capture details for every plain file in paths
// with a single exiftool process and sends them to out. Archive entries
// have no file of their own and are skipped. It closes out when done.
func readMetadata(paths []ImagePath, out chan<- metadataResult) {
	defer close(out)

	var files []string
	var indices []int
	for i, p := range paths {
		if p.ArchivePath == "" {
			files = append(files, p.Path)
			indices = append(indices, i)
		}
	}
	if len(files) == 0 {
		return
	}

	et, err := exiftool.NewExiftool()
	if err != nil {
		klog.Warningf("exiftool unavailable, metadata panel disabled: %v", err)
		return
	}
	defer et.Close()

	for n, fm := range et.ExtractMetadata(files...) {
		if fm.Err != nil {
			klog.V(1).Infof("no metadata for %s: %v", fm.File, fm.Err)
			continue
		}
		meta := metadataFromFields(fm)
		if len(meta.Fields()) == 0 {
			continue
		}
		out <- metadataResult{index: indices[n], meta: meta}
	}
	klog.Infof("read metadata for %d files", len(files))
}

func field(fm exiftool.FileMetadata, keys ...string) string {
	for _, k := range keys {
		v, err := fm.GetString(k)
		if err != nil {
			continue
		}
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// metadataFromFields maps exiftool tags to the panel's display fields
func metadataFromFields(fm exiftool.FileMetadata) viewer.Metadata {
	var m viewer.Metadata

	maker := field(fm, "Make")
	model := field(fm, "Model")
	switch {
	case model == "":
		m.Camera = maker
	case maker == "" || strings.HasPrefix(strings.ToLower(model), strings.ToLower(maker)):
		m.Camera = model
	default:
		m.Camera = maker + " " + model
	}

	m.Lens = field(fm, "LensModel", "Lens", "LensID")

	if iso := field(fm, "ISO"); iso != "" {
		m.ISO = "ISO " + iso
	}

	if focal := field(fm, "FocalLength"); focal != "" {
		focal = strings.ReplaceAll(focal, ".0 mm", " mm")
		m.Focal = strings.ReplaceAll(focal, " mm", "mm")
	}

	if f := field(fm, "FNumber", "Aperture", "ApertureValue"); f != "" {
		m.Aperture = "f/" + strings.TrimPrefix(f, "f/")
	}

	m.Shutter = shutterText(field(fm, "ExposureTime", "ShutterSpeed", "ShutterSpeedValue"))

	place := []string{}
	for _, k := range []string{"City", "State", "Country"} {
		if v := field(fm, k); v != "" {
			place = append(place, v)
		}
	}
	if len(place) > 0 {
		m.Location = strings.Join(place, ", ")
	} else {
		m.Location = field(fm, "GPSPosition")
	}
	return m
}

// shutterText renders an exposure time as "1/250s" or "2s". exiftool
// reports either a fraction string or a number of seconds.
func shutterText(v string) string {
	if v == "" {
		return ""
	}
	if strings.Contains(v, "/") {
		return strings.TrimSuffix(v, "s") + "s"
	}
	sec, err := strconv.ParseFloat(v, 64)
	if err != nil || sec <= 0 {
		return v
	}
	if sec < 1 {
		return fmt.Sprintf("1/%ds", int(math.Round(1/sec)))
	}
	return strconv.FormatFloat(sec, 'f', -1, 64) + "s"
}
