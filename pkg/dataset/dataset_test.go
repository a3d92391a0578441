package dataset

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/coolbeans/votetable/pkg/votes"
)

const sampleJSONArray = `[
  {"id": 42, "name": "Jane Doe", "party": "Democrat", "state": "CA", "vote": "Yea", "congress": 113},
  {"id": "MH085001", "name": "Roe, Richard", "party": "Republican", "state": "TX", "vote": "Nay", "chamber": "House"}
]`

const sampleJSONEnvelope = `{"votes": [{"id": 1, "name": "Solo", "party": "I", "state": "VT", "vote": "Present"}]}`

const sampleYAML = `
votes:
  - id: 42
    name: Jane Doe
    party: Democrat
    state: CA
    vote: Yea
  - id: S354
    name: Baldwin, Tammy
    party: D
    state: WI
    vote: Nay
    congress: 119
    chamber: Senate
`

const sampleCSV = `name,id,party,state,vote,congress,chamber,notes
Jane Doe,42,Democrat,CA,Yea,113,House,ignored
"Roe, Richard",7,Republican,TX,Nay,,Senate,
`

// Roll call fixture trimmed from a senate.gov vote document.
const sampleRollCallVoteXML = `<?xml version="1.0" encoding="UTF-8"?>
<roll_call_vote>
  <congress>119</congress>
  <session>1</session>
  <congress_year>2025</congress_year>
  <vote_number>00001</vote_number>
  <vote_date>January 3, 2025, 12:05 PM</vote_date>
  <question>On the Motion</question>
  <vote_title>Motion to Table Schumer Amdt. No. 1</vote_title>
  <count>
    <yeas>52</yeas>
    <nays>47</nays>
    <present>0</present>
    <absent>1</absent>
  </count>
  <members>
    <member>
      <member_full>Baldwin (D-WI)</member_full>
      <last_name>Baldwin</last_name>
      <first_name>Tammy</first_name>
      <party>D</party>
      <state>WI</state>
      <vote_cast>Nay</vote_cast>
      <lis_member_id>S354</lis_member_id>
    </member>
    <member>
      <member_full>Barrasso (R-WY)</member_full>
      <last_name>Barrasso</last_name>
      <first_name>John</first_name>
      <party>R</party>
      <state>WY</state>
      <vote_cast>Yea</vote_cast>
      <lis_member_id>S317</lis_member_id>
    </member>
    <member>
      <member_full>Fetterman (D-PA)</member_full>
      <party>D</party>
      <state>pa</state>
      <vote_cast>not voting</vote_cast>
      <lis_member_id>S412</lis_member_id>
    </member>
  </members>
</roll_call_vote>`

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"votes.json", FormatJSON, false},
		{"votes.YAML", FormatYAML, false},
		{"votes.yml", FormatYAML, false},
		{"votes.csv", FormatCSV, false},
		{"votes.msgpack", FormatMsgpack, false},
		{"votes.mpk", FormatMsgpack, false},
		{"votes.db", FormatSQLite, false},
		{"votes.sqlite3", FormatSQLite, false},
		{"vote_119_1_00001.xml", FormatSenateXML, false},
		{"votes.txt", formatUnknown, true},
		{"votes", formatUnknown, true},
	}

	for _, tt := range tests {
		got, err := DetectFormat(tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("DetectFormat(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("DetectFormat(%q) error = %v, want ErrUnsupportedFormat", tt.path, err)
		}
		if got != tt.want {
			t.Errorf("DetectFormat(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	records, err := DecodeJSON(strings.NewReader(sampleJSONArray))
	if err != nil {
		t.Fatalf("DecodeJSON() error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	want := votes.VoteRecord{ID: "42", Name: "Jane Doe", Party: "Democrat", State: "CA", Vote: "Yea", Congress: 113}
	if records[0] != want {
		t.Errorf("records[0] = %+v, want %+v", records[0], want)
	}
	if records[1].ID != "MH085001" || records[1].Chamber != "House" {
		t.Errorf("records[1] = %+v", records[1])
	}

	wrapped, err := DecodeJSON(strings.NewReader(sampleJSONEnvelope))
	if err != nil {
		t.Fatalf("DecodeJSON(envelope) error: %v", err)
	}
	if len(wrapped) != 1 || wrapped[0].Name != "Solo" {
		t.Errorf("envelope records = %+v", wrapped)
	}

	empty, err := DecodeJSON(strings.NewReader("  "))
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("DecodeJSON(blank) = %v, %v; want empty slice", empty, err)
	}

	if _, err := DecodeJSON(strings.NewReader("[{")); err == nil {
		t.Error("expected error for truncated JSON")
	}
}

func TestDecodeYAML(t *testing.T) {
	records, err := DecodeYAML(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("DecodeYAML() error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].ID != "42" || records[1].Name != "Baldwin, Tammy" || records[1].Congress != 119 {
		t.Errorf("records = %+v", records)
	}

	sequence, err := DecodeYAML(strings.NewReader("- id: 1\n  name: A\n"))
	if err != nil || len(sequence) != 1 {
		t.Errorf("DecodeYAML(sequence) = %v, %v", sequence, err)
	}

	empty, err := DecodeYAML(strings.NewReader(""))
	if err != nil || len(empty) != 0 {
		t.Errorf("DecodeYAML(empty) = %v, %v", empty, err)
	}

	if _, err := DecodeYAML(strings.NewReader("just a string")); err == nil {
		t.Error("expected error for scalar document")
	}
}

func TestDecodeCSV(t *testing.T) {
	records, err := DecodeCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("DecodeCSV() error: %v", err)
	}
	want := []votes.VoteRecord{
		{ID: "42", Name: "Jane Doe", Party: "Democrat", State: "CA", Vote: "Yea", Congress: 113, Chamber: "House"},
		{ID: "7", Name: "Roe, Richard", Party: "Republican", State: "TX", Vote: "Nay", Chamber: "Senate"},
	}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d", len(records), len(want))
	}
	for i := range want {
		if records[i] != want[i] {
			t.Errorf("records[%d] = %+v, want %+v", i, records[i], want[i])
		}
	}
}

func TestDecodeCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing id column", "name,party\nA,D\n"},
		{"bad congress", "id,name,congress\n1,A,one hundred\n"},
		{"bad quoting", "id,name\n1,\"A\n"},
	}

	for _, tt := range tests {
		if _, err := DecodeCSV(strings.NewReader(tt.input)); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}

	empty, err := DecodeCSV(strings.NewReader(""))
	if err != nil || len(empty) != 0 {
		t.Errorf("DecodeCSV(empty) = %v, %v", empty, err)
	}
}

func TestMsgpackRoundTrip(t *testing.T) {
	records, err := DecodeJSON(strings.NewReader(sampleJSONArray))
	if err != nil {
		t.Fatalf("DecodeJSON() error: %v", err)
	}

	var buffer bytes.Buffer
	if err := WriteMsgpack(&buffer, records); err != nil {
		t.Fatalf("WriteMsgpack() error: %v", err)
	}
	decoded, err := ReadMsgpack(&buffer)
	if err != nil {
		t.Fatalf("ReadMsgpack() error: %v", err)
	}
	if len(decoded) != len(records) {
		t.Fatalf("decoded %d records, want %d", len(decoded), len(records))
	}
	for i := range records {
		if decoded[i] != records[i] {
			t.Errorf("decoded[%d] = %+v, want %+v", i, decoded[i], records[i])
		}
	}

	if _, err := ReadMsgpack(bytes.NewReader([]byte{0x91})); err == nil {
		t.Error("expected error for truncated msgpack stream")
	}
}

func TestMemberIDFromWire(t *testing.T) {
	tests := []struct {
		value interface{}
		want  votes.MemberID
	}{
		{nil, ""},
		{"S354", "S354"},
		{[]byte("M1"), "M1"},
		{int8(42), "42"},
		{uint64(99369), "99369"},
		{float64(42), "42"},
		{float64(1e21), "1000000000000000000000"},
		{float32(7.5), "7.5"},
	}

	for _, tt := range tests {
		if got := memberIDFromWire(tt.value); got != tt.want {
			t.Errorf("memberIDFromWire(%#v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestDecodeSenateRollCall(t *testing.T) {
	records, err := DecodeSenateRollCall(strings.NewReader(sampleRollCallVoteXML))
	if err != nil {
		t.Fatalf("DecodeSenateRollCall() error: %v", err)
	}

	want := []votes.VoteRecord{
		{ID: "S354", Name: "Baldwin, Tammy", Party: "D", State: "WI", Vote: "Nay", Congress: 119, Chamber: "Senate"},
		{ID: "S317", Name: "Barrasso, John", Party: "R", State: "WY", Vote: "Yea", Congress: 119, Chamber: "Senate"},
		{ID: "S412", Name: "Fetterman (D-PA)", Party: "D", State: "PA", Vote: "Not Voting", Congress: 119, Chamber: "Senate"},
	}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d", len(records), len(want))
	}
	for i := range want {
		if records[i] != want[i] {
			t.Errorf("records[%d] = %+v, want %+v", i, records[i], want[i])
		}
	}

	if _, err := DecodeSenateRollCall(strings.NewReader("<vote_summary></vote_summary>")); err == nil {
		t.Error("expected error for non roll call document")
	}
}

func TestNormalizeVoteCast(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Yea", VoteYea},
		{"aye", VoteYea},
		{"YES", VoteYea},
		{"Nay", VoteNay},
		{"no", VoteNay},
		{"Present", VotePresent},
		{"Not Voting", VoteNotVoting},
		{"NotVoting", VoteNotVoting},
		{" Guilty ", "Guilty"},
	}

	for _, tt := range tests {
		if got := NormalizeVoteCast(tt.input); got != tt.want {
			t.Errorf("NormalizeVoteCast(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func createSQLiteFixture(t *testing.T, schema string, inserts ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "votes.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer db.Close()

	for _, statement := range append([]string{schema}, inserts...) {
		if _, err := db.Exec(statement); err != nil {
			t.Fatalf("failed to exec %q: %v", statement, err)
		}
	}
	return path
}

func TestLoad_SQLite(t *testing.T) {
	path := createSQLiteFixture(t,
		`CREATE TABLE votes (id INTEGER, name TEXT, party TEXT, state TEXT, vote TEXT, congress INTEGER, chamber TEXT)`,
		`INSERT INTO votes VALUES (42, 'Jane Doe', 'Democrat', 'CA', 'Yea', 113, 'House')`,
		`INSERT INTO votes VALUES (7, 'Roe, Richard', 'Republican', 'TX', NULL, NULL, NULL)`,
	)

	records, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	want := []votes.VoteRecord{
		{ID: "42", Name: "Jane Doe", Party: "Democrat", State: "CA", Vote: "Yea", Congress: 113, Chamber: "House"},
		{ID: "7", Name: "Roe, Richard", Party: "Republican", State: "TX"},
	}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d", len(records), len(want))
	}
	for i := range want {
		if records[i] != want[i] {
			t.Errorf("records[%d] = %+v, want %+v", i, records[i], want[i])
		}
	}
}

func TestLoad_SQLiteOptionalColumns(t *testing.T) {
	path := createSQLiteFixture(t,
		`CREATE TABLE votes (id TEXT, name TEXT, party TEXT)`,
		`INSERT INTO votes VALUES ('S354', 'Baldwin, Tammy', 'D')`,
	)

	records, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(records) != 1 || records[0].Party != "D" || records[0].Vote != "" {
		t.Errorf("records = %+v", records)
	}
}

func TestLoad_SQLiteErrors(t *testing.T) {
	missingTable := createSQLiteFixture(t, `CREATE TABLE members (id TEXT)`)
	if _, err := Load(context.Background(), missingTable); err == nil {
		t.Error("expected error for missing votes table")
	}

	missingColumn := createSQLiteFixture(t, `CREATE TABLE votes (id TEXT, party TEXT)`)
	if _, err := Load(context.Background(), missingColumn); err == nil {
		t.Error("expected error for missing name column")
	}

	absent := filepath.Join(t.TempDir(), "absent.db")
	if _, err := Load(context.Background(), absent); err == nil {
		t.Error("expected error for absent database")
	}
	if _, err := os.Stat(absent); !os.IsNotExist(err) {
		t.Error("loading an absent database must not create it")
	}
}

func TestLoad_DispatchesByExtension(t *testing.T) {
	var msgpackBuffer bytes.Buffer
	if err := WriteMsgpack(&msgpackBuffer, []votes.VoteRecord{{ID: "1", Name: "Packed"}}); err != nil {
		t.Fatalf("WriteMsgpack() error: %v", err)
	}

	tests := []struct {
		name      string
		content   string
		wantCount int
	}{
		{"votes.json", sampleJSONArray, 2},
		{"votes.yaml", sampleYAML, 2},
		{"votes.csv", sampleCSV, 2},
		{"votes.msgpack", msgpackBuffer.String(), 1},
		{"vote_119_1_00001.xml", sampleRollCallVoteXML, 3},
	}

	for _, tt := range tests {
		path := writeFixture(t, tt.name, tt.content)
		records, err := Load(context.Background(), path)
		if err != nil {
			t.Errorf("Load(%s) error: %v", tt.name, err)
			continue
		}
		if len(records) != tt.wantCount {
			t.Errorf("Load(%s) returned %d records, want %d", tt.name, len(records), tt.wantCount)
		}
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(context.Background(), writeFixture(t, "votes.txt", "x")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Load(.txt) error = %v, want ErrUnsupportedFormat", err)
	}

	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Load(ctx, writeFixture(t, "votes.json", sampleJSONArray)); !errors.Is(err, context.Canceled) {
		t.Errorf("Load(cancelled) error = %v, want context.Canceled", err)
	}
}

func TestLoadAll(t *testing.T) {
	paths := []string{
		writeFixture(t, "a.json", sampleJSONEnvelope),
		writeFixture(t, "b.csv", sampleCSV),
		writeFixture(t, "c.yaml", sampleYAML),
	}

	records, err := LoadAll(context.Background(), paths)
	if err != nil {
		t.Fatalf("LoadAll() error: %v", err)
	}
	var names []string
	for _, record := range records {
		names = append(names, record.Name)
	}
	want := "Solo|Jane Doe|Roe, Richard|Jane Doe|Baldwin, Tammy"
	if got := strings.Join(names, "|"); got != want {
		t.Errorf("LoadAll() names = %q, want %q", got, want)
	}

	empty, err := LoadAll(context.Background(), nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("LoadAll(nil) = %v, %v", empty, err)
	}

	paths = append(paths, writeFixture(t, "broken.json", "{"))
	if _, err := LoadAll(context.Background(), paths); err == nil {
		t.Error("expected error when one dataset is broken")
	}
}
