// Copyright 2021 - 2022 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mergetree

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/LordVoldebug/ClickHouse/pkg/common/moerr"
	"github.com/LordVoldebug/ClickHouse/pkg/container/types"
	"github.com/LordVoldebug/ClickHouse/pkg/container/vector"
	"github.com/LordVoldebug/ClickHouse/pkg/vm/engine"
)

const (
	columnsFileName = "columns.txt"
	countFileName   = "count.txt"
	primaryFileName = "primary.idx"

	columnsFormatHeader = "columns format version: 1"
)

// OpenTable loads a table directory whose subdirectories are sealed parts.
// The schema is read from the parts' columns files; pkNames selects the
// primary-key columns in key order.
func OpenTable(ctx context.Context, dir string, pkNames []string) (*Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, moerr.NewInvalidPath(ctx, dir)
	}

	var table *Table
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		part, attrs, err := openPart(ctx, filepath.Join(dir, entry.Name()), pkNames)
		if err != nil {
			return nil, err
		}
		if table == nil {
			pk, err := selectAttributes(ctx, attrs, pkNames)
			if err != nil {
				return nil, err
			}
			table = NewTable(filepath.Base(dir), attrs, pk)
		}
		table.AppendPart(part)
	}
	if table == nil {
		return nil, moerr.NewInvalidState(ctx, "table directory %s has no parts", dir)
	}
	return table, nil
}

// OpenPart loads one part directory.  The layout is inferred from the
// presence of the compact data file; granularity comes from the adaptive
// marks of the first stream; the stream set from the data files present.
func OpenPart(ctx context.Context, dir string, pkNames []string) (*DataPart, error) {
	part, _, err := openPart(ctx, dir, pkNames)
	return part, err
}

func openPart(ctx context.Context, dir string, pkNames []string) (*DataPart, []engine.Attribute, error) {
	attrs, err := parseColumnsFile(ctx, filepath.Join(dir, columnsFileName))
	if err != nil {
		return nil, nil, err
	}
	totalRows, err := readCountFile(ctx, filepath.Join(dir, countFileName))
	if err != nil {
		return nil, nil, err
	}

	typ := Wide
	if _, err := os.Stat(filepath.Join(dir, DataFileName+".bin")); err == nil {
		typ = Compact
	}

	part := NewDataPart(filepath.Base(dir), typ)
	part.Path = dir
	for _, attr := range attrs {
		part.AddColumn(attr.Name)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, moerr.NewInvalidPath(ctx, dir)
	}
	for _, entry := range entries {
		if name, ok := strings.CutSuffix(entry.Name(), ".bin"); ok {
			part.AddStream(name)
		}
	}

	firstStream := DataFileName
	columnsInMark := len(attrs)
	if typ == Wide {
		firstStream = EscapeForFileName(attrs[0].Name)
		columnsInMark = 1
	}
	info, ok := detectGranularityInfo(dir, firstStream)
	if !ok {
		return nil, nil, moerr.NewFileNotFound(ctx, filepath.Join(dir, firstStream+".mrk2"))
	}
	part.Info = info

	if info.Adaptive {
		granularity, err := ReadGranularity(ctx, info, info.MarksFilePath(dir, firstStream), columnsInMark)
		if err != nil {
			return nil, nil, err
		}
		part.Granularity = granularity
	} else {
		part.Granularity = fixedGranularity(totalRows)
	}
	if part.Granularity.TotalRows() != totalRows {
		return nil, nil, moerr.NewInvalidState(ctx,
			"part %s: granularity covers %d rows, count file says %d",
			part.Name, part.Granularity.TotalRows(), totalRows)
	}

	pk, err := selectAttributes(ctx, attrs, pkNames)
	if err != nil {
		return nil, nil, err
	}
	if len(pk) > 0 {
		index, err := readPrimaryIndex(ctx, filepath.Join(dir, primaryFileName), pk, part.Granularity.MarksCount())
		if err != nil {
			return nil, nil, err
		}
		part.Index = index
	}
	return part, attrs, nil
}

func detectGranularityInfo(dir, stream string) (GranularityInfo, bool) {
	candidates := []GranularityInfo{
		{Adaptive: true, CompressedMarks: true},
		{Adaptive: true},
		{CompressedMarks: true},
		{},
	}
	for _, info := range candidates {
		if _, err := os.Stat(info.MarksFilePath(dir, stream)); err == nil {
			return info, true
		}
	}
	return GranularityInfo{}, false
}

func fixedGranularity(totalRows uint64) *IndexGranularity {
	granularity := NewIndexGranularity()
	for rows := totalRows; rows > 0; {
		granule := uint64(DefaultGranularity)
		if rows < granule {
			granule = rows
		}
		granularity.AppendMark(granule)
		rows -= granule
	}
	return granularity
}

func parseColumnsFile(ctx context.Context, path string) ([]engine.Attribute, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, moerr.NewFileNotFound(ctx, path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() || scanner.Text() != columnsFormatHeader {
		return nil, moerr.NewInvalidInput(ctx, "bad columns file header in %s", path)
	}
	if !scanner.Scan() {
		return nil, moerr.NewUnexpectedEOF(ctx, path)
	}
	var count int
	if _, err := fmt.Sscanf(scanner.Text(), "%d columns:", &count); err != nil {
		return nil, moerr.NewInvalidInput(ctx, "bad columns count line in %s", path)
	}

	attrs := make([]engine.Attribute, 0, count)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		name, typeName, ok := splitColumnLine(line)
		if !ok {
			return nil, moerr.NewInvalidInput(ctx, "bad column line %q in %s", line, path)
		}
		typ, err := parseTypeName(ctx, typeName)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, engine.Attribute{Name: name, Type: typ})
	}
	if err := scanner.Err(); err != nil {
		return nil, moerr.ConvertGoError(ctx, err)
	}
	if len(attrs) != count {
		return nil, moerr.NewInvalidInput(ctx, "columns file %s declares %d columns, has %d", path, count, len(attrs))
	}
	if len(attrs) == 0 {
		return nil, moerr.NewInvalidInput(ctx, "columns file %s declares no columns", path)
	}
	return attrs, nil
}

// splitColumnLine parses "`name` Type".
func splitColumnLine(line string) (string, string, bool) {
	if len(line) < 2 || line[0] != '`' {
		return "", "", false
	}
	end := strings.IndexByte(line[1:], '`')
	if end < 0 {
		return "", "", false
	}
	name := line[1 : 1+end]
	typeName := strings.TrimSpace(line[2+end:])
	if name == "" || typeName == "" {
		return "", "", false
	}
	return name, typeName, true
}

func parseTypeName(ctx context.Context, name string) (types.Type, error) {
	switch name {
	case "UInt64":
		return types.New(types.T_uint64), nil
	case "String":
		return types.New(types.T_varchar), nil
	}
	return types.Type{}, moerr.NewNotSupported(ctx, "column type %s", name)
}

func readCountFile(ctx context.Context, path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, moerr.NewFileNotFound(ctx, path)
	}
	count, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, moerr.NewInvalidInput(ctx, "bad count file %s", path)
	}
	return count, nil
}

func selectAttributes(ctx context.Context, attrs []engine.Attribute, names []string) ([]engine.Attribute, error) {
	selected := make([]engine.Attribute, 0, len(names))
	for _, name := range names {
		found := false
		for _, attr := range attrs {
			if attr.Name == name {
				selected = append(selected, attr)
				found = true
				break
			}
		}
		if !found {
			return nil, moerr.NewBadFieldError(ctx, name, "primary key")
		}
	}
	return selected, nil
}

// readPrimaryIndex reads the materialized primary-key index: one value per
// key column per mark, in mark-major order.
func readPrimaryIndex(ctx context.Context, path string, pk []engine.Attribute, marks int) ([]*vector.Vector, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, moerr.NewFileNotFound(ctx, path)
	}
	defer f.Close()
	reader := bufio.NewReader(f)

	uintCols := make(map[int][]uint64)
	strCols := make(map[int][]string)
	for i, attr := range pk {
		switch attr.Type.Oid {
		case types.T_uint64:
			uintCols[i] = make([]uint64, 0, marks)
		case types.T_varchar:
			strCols[i] = make([]string, 0, marks)
		default:
			return nil, moerr.NewNotSupported(ctx, "primary key column type %s", attr.Type)
		}
	}

	for m := 0; m < marks; m++ {
		for i, attr := range pk {
			switch attr.Type.Oid {
			case types.T_uint64:
				var scratch [8]byte
				if _, err := io.ReadFull(reader, scratch[:]); err != nil {
					return nil, moerr.NewUnexpectedEOF(ctx, path)
				}
				uintCols[i] = append(uintCols[i], binary.LittleEndian.Uint64(scratch[:]))
			case types.T_varchar:
				size, err := binary.ReadUvarint(reader)
				if err != nil {
					return nil, moerr.NewUnexpectedEOF(ctx, path)
				}
				buf := make([]byte, size)
				if _, err := io.ReadFull(reader, buf); err != nil {
					return nil, moerr.NewUnexpectedEOF(ctx, path)
				}
				strCols[i] = append(strCols[i], string(buf))
			}
		}
	}

	index := make([]*vector.Vector, len(pk))
	for i, attr := range pk {
		switch attr.Type.Oid {
		case types.T_uint64:
			index[i] = vector.NewWithFixed(attr.Type, uintCols[i], nil)
		case types.T_varchar:
			index[i] = vector.NewWithStrings(attr.Type, strCols[i], nil)
		}
	}
	return index, nil
}
