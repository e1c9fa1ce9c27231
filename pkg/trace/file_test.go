package trace

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEntries(t *testing.T) {
	src := `{"core":0,"input":1,"kind":"instr","tid":101,"pc":4096}

{"core":0,"input":1,"kind":"marker","tid":101,"marker":"maybe_blocking_syscall","value":202}
{"core":1,"input":2,"kind":"data","tid":102,"addr":64}
{"core":1,"input":2,"kind":"exit","tid":102}
`
	entries, err := Decode(strings.NewReader(src))
	require.NoError(t, err)

	want := []Entry{
		{Core: 0, Input: 1, Record: Instr(101, 4096)},
		{Core: 0, Input: 1, Record: Marker(101, MarkerMaybeBlockingSyscall, 202)},
		{Core: 1, Input: 2, Record: Data(102, 64)},
		{Core: 1, Input: 2, Record: Exit(102)},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeReportsLine(t *testing.T) {
	src := `{"core":0,"input":0,"kind":"instr","tid":1}
{"core":0,"input":0,"kind":"bogus","tid":1}
`
	_, err := Decode(strings.NewReader(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Contains(t, err.Error(), "bogus")
}

func TestDecodeUnknownMarker(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"core":0,"input":0,"kind":"marker","marker":"nope"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"nope"`)
}

func TestEncodeRejectsInvalidKind(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, []Entry{{Record: Record{Kind: 42}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry 0")
}

func TestSaveLoadTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")
	entries := []Entry{
		{Core: 3, Input: 0, Record: Marker(7, MarkerTimestamp, 1000)},
		{Core: 3, Input: 0, Record: Instr(7, 0x401000)},
		{Core: 3, Input: -1, Record: Marker(InvalidThreadID, MarkerCoreWait, 0)},
	}
	require.NoError(t, SaveTrace(path, entries))

	got, err := LoadTrace(path)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestLoadTraceMissingFile(t *testing.T) {
	_, err := LoadTrace(filepath.Join(t.TempDir(), "missing.jsonl"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open trace file")
}

func TestGroupByCore(t *testing.T) {
	entries := []Entry{
		{Core: 1, Input: 0, Record: Instr(1, 1)},
		{Core: 0, Input: 1, Record: Instr(2, 2)},
		{Core: 1, Input: 2, Record: Instr(3, 3)},
		{Core: 0, Input: 1, Record: Instr(2, 4)},
	}
	grouped := GroupByCore(entries)
	require.Len(t, grouped, 2)
	assert.Equal(t, []Entry{entries[0], entries[2]}, grouped[1])
	assert.Equal(t, []Entry{entries[1], entries[3]}, grouped[0])
}

func TestKindAndMarkerStrings(t *testing.T) {
	assert.Equal(t, "instr", KindInstr.String())
	assert.Equal(t, "exit", KindThreadExit.String())
	assert.Equal(t, "unknown", Kind(0).String())
	assert.Equal(t, "core_wait", MarkerCoreWait.String())
	assert.Equal(t, "unknown", MarkerType(200).String())

	st, ok := ParseShardType("core")
	assert.True(t, ok)
	assert.Equal(t, ShardByCore, st)
	_, ok = ParseShardType("serial")
	assert.False(t, ok)
}
