// Gamedock Core
// Copyright (c) 2026 The Gamedock Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Gamedock Core.
//
// Gamedock Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gamedock Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gamedock Core.  If not, see <http://www.gnu.org/licenses/>.

package restplugin

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gamedock/gamedock-core/pkg/runners"
	"github.com/itchio/headway/tracker"
	"github.com/itchio/headway/united"
	"github.com/rs/zerolog/log"
)

// PartialName is the file a download is written to inside the base path.
const PartialName = ".gamedock-download.part"

var zipMagic = []byte("PK\x03\x04")

// progressWriter feeds written byte counts into a headway tracker and
// forwards its stats as progress samples.
type progressWriter struct {
	trk     tracker.Tracker
	tp      *runners.ThrottledProgress
	total   int64
	written int64
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.written += int64(len(p))
	if w.total > 0 {
		w.trk.SetProgress(float64(w.written) / float64(w.total))
	}
	w.tp.Report(w.sample())
	return len(p), nil
}

func (w *progressWriter) sample() runners.Progress {
	p := runners.Progress{
		Bytes:      w.written,
		TotalBytes: w.total,
		Percent:    w.trk.Progress() * 100,
	}
	if stats := w.trk.Stats(); stats != nil {
		if bps := stats.BPS(); bps != nil {
			p.DownloadSpeed = float64(bps.Value)
			p.DiskSpeed = p.DownloadSpeed
		}
		if left := stats.TimeLeft(); left != nil {
			p.ETA = runners.FormatETA(*left)
		}
	}
	return p
}

func (r *Runner) resolveURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid download url: %w", err)
	}
	if u.IsAbs() {
		return raw, nil
	}
	base, err := url.Parse(r.plugin.BaseURL + "/")
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	return base.ResolveReference(u).String(), nil
}

// download writes the release archive to dest and reports progress for
// appID.
func (r *Runner) download(ctx context.Context, tp *runners.ThrottledProgress, rel *Release, dest string) error {
	src, err := r.resolveURL(rel.DownloadURL)
	if err != nil {
		return err
	}
	req, err := r.newRequest(ctx, src)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer closeBody(resp)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = rel.Size
	}
	trk := tracker.New(tracker.Opts{ByteAmount: &tracker.ByteAmount{Value: total}})
	defer trk.Finish()

	//nolint:gosec // dest is built from the install base path
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create download file: %w", err)
	}
	pw := &progressWriter{trk: trk, tp: tp, total: total}
	start := time.Now()
	_, err = io.Copy(io.MultiWriter(f, pw), resp.Body)
	tp.Flush()
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("download cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("download interrupted: %w", err)
	}

	elapsed := time.Since(start)
	log.Info().
		Str("size", united.FormatBytes(pw.written)).
		Str("speed", united.FormatBPS(pw.written, elapsed)).
		Str("took", united.FormatDuration(elapsed)).
		Msg("download finished")
	return nil
}

func isZip(file string) (bool, error) {
	f, err := os.Open(file) //nolint:gosec // internal download path
	if err != nil {
		return false, fmt.Errorf("failed to open download: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close download")
		}
	}()
	head := make([]byte, len(zipMagic))
	if _, err := io.ReadFull(f, head); err != nil {
		return false, nil //nolint:nilerr // short files are not archives
	}
	return bytes.Equal(head, zipMagic), nil
}

var errUnsafePath = errors.New("archive entry escapes the install folder")

// extractZip unpacks archive into dir and returns the bytes written.
func extractZip(ctx context.Context, archive, dir string) (int64, error) {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return 0, fmt.Errorf("failed to open archive: %w", err)
	}
	defer func() {
		if err := zr.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close archive")
		}
	}()

	var total int64
	for _, zf := range zr.File {
		if err := ctx.Err(); err != nil {
			return total, fmt.Errorf("extraction cancelled: %w", err)
		}
		n, err := extractEntry(zf, dir)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func extractEntry(zf *zip.File, dir string) (int64, error) {
	target := filepath.Join(dir, filepath.FromSlash(zf.Name))
	rel, err := filepath.Rel(dir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return 0, fmt.Errorf("%w: %s", errUnsafePath, zf.Name)
	}

	if zf.FileInfo().IsDir() {
		if err := os.MkdirAll(target, 0o750); err != nil {
			return 0, fmt.Errorf("failed to create folder: %w", err)
		}
		return 0, nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return 0, fmt.Errorf("failed to create folder: %w", err)
	}

	rc, err := zf.Open()
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", zf.Name, err)
	}
	defer func() {
		if err := rc.Close(); err != nil {
			log.Warn().Err(err).Str("entry", zf.Name).Msg("failed to close archive entry")
		}
	}()

	mode := zf.Mode().Perm() | 0o600
	//nolint:gosec // target is checked against dir above
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", target, err)
	}
	//nolint:gosec // archive size is bounded by the store's release
	n, err := io.Copy(out, rc)
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return n, fmt.Errorf("failed to write %s: %w", target, err)
	}
	return n, nil
}
