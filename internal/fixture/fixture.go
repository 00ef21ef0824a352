// Package fixture writes a small, complete dictionary data directory for
// tests: two shards, the built index, a connection matrix and id.def.
package fixture

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bastiangx/henkan/pkg/connection"
	"github.com/bastiangx/henkan/pkg/dictionary"
)

// Context ids defined by the fixture id.def.
const (
	IDBosEos    = 0
	IDNoun      = 1  // 名詞,一般
	IDAdverbial = 2  // 名詞,副詞可能
	IDSahen     = 3  // 名詞,サ変接続
	IDPlace     = 4  // 名詞,固有名詞,地域
	IDAttrib    = 5  // 助詞,連体化
	IDCase      = 6  // 助詞,格助詞
	IDVerb      = 7  // 動詞,自立
	IDPolite    = 8  // 助動詞 ます
	IDPast      = 9  // 助動詞 た
	IDSuru      = 10 // 動詞,自立 する
	IDNumber    = 11 // 名詞,数
	IDCounter   = 12 // 名詞,接尾,助数詞
	IDBinding   = 13 // 助詞,係助詞

	MatrixSize = 14
	ShardCount = 2
)

// IDDef is the fixture id.def content.
const IDDef = `0 BOS/EOS,*,*,*,*,*,*
1 名詞,一般,*,*,*,*,*
2 名詞,副詞可能,*,*,*,*,*
3 名詞,サ変接続,*,*,*,*,*
4 名詞,固有名詞,地域,一般,*,*,*
5 助詞,連体化,*,*,*,*,の
6 助詞,格助詞,一般,*,*,*,を
7 動詞,自立,*,*,一段,連用形,食べる
8 助動詞,*,*,*,特殊・マス,連用形,ます
9 助動詞,*,*,*,特殊・タ,基本形,た
10 動詞,自立,*,*,サ変・スル,連用形,する
11 名詞,数,*,*,*,*,*
12 名詞,接尾,助数詞,*,*,*,*
13 助詞,係助詞,*,*,*,*,は
`

// Shards holds the dictionary lines of dictionary00.txt and dictionary01.txt.
var Shards = [ShardCount][]string{
	{
		"きのう\t2\t2\t3000\t昨日",
		"きのう\t3\t3\t3000\t機能",
		"の\t5\t5\t500\tの",
		"とうきょう\t4\t4\t2000\t東京",
		"とう\t1\t1\t4000\t塔",
		"きょう\t2\t2\t3500\t今日",
		"きょう\t1\t1\t5000\t京",
		"たべ\t7\t7\t3000\t食べ",
	},
	{
		"まし\t8\t8\t2000\tまし",
		"た\t9\t9\t1500\tた",
		"かいぎ\t3\t3\t2500\t会議",
		"を\t6\t6\t500\tを",
		"かいさい\t3\t3\t2500\t開催",
		"し\t10\t10\t1500\tし",
		"かい\t1\t1\t3500\t会",
		"broken line without tabs",
		"ぼろ\tx\t1\t1\tボロ",
		"いち\t11\t11\t2000\t一",
		"こ\t12\t12\t3000\t個",
		"は\t13\t13\t400\tは",
	},
}

// Connections lists the non-zero matrix cells as {right, left, cost}.
var Connections = [][3]int{
	{IDVerb, IDPolite, -1000},
	{IDPolite, IDPast, -1000},
	{IDSuru, IDPast, -500},
	{IDSahen, IDSuru, -300},
}

// Costs returns the row-major matrix.
func Costs() []int16 {
	costs := make([]int16, MatrixSize*MatrixSize)
	for _, c := range Connections {
		costs[c[0]*MatrixSize+c[1]] = int16(c[2])
	}
	return costs
}

// Write creates the data directory under t.TempDir and returns its path.
func Write(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	if err := WriteDir(dir); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	return dir
}

// WriteDir writes every fixture file into dir and builds the index.
func WriteDir(dir string) error {
	for i, lines := range Shards {
		path := filepath.Join(dir, dictionary.ShardName(i))
		if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
			return fmt.Errorf("write shard %d: %w", i, err)
		}
	}
	if _, err := dictionary.BuildIndex(dir); err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := connection.WriteFile(filepath.Join(dir, dictionary.MatrixFile), MatrixSize, Costs()); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, dictionary.PosDefFile), []byte(IDDef), 0o644); err != nil {
		return fmt.Errorf("write id.def: %w", err)
	}
	return nil
}
