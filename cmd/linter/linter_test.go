package main

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/tools/go/analysis/analysistest"
)

func TestAnalyzer(t *testing.T) {
	testdata := t.TempDir()

	// Создаём структуру testdata/src/a
	pkgDir := filepath.Join(testdata, "src", "a")
	err := os.MkdirAll(pkgDir, 0755)
	if err != nil {
		t.Fatal(err)
	}

	badGoCode := `package a

type pool struct{}

func (p *pool) Acquire(timeout int) (int, bool) { return 0, true }

func BadFunc1() {
	p := &pool{}
	p.Acquire(0) // want "результат Acquire отброшен: соединение невозможно вернуть в пул"
}

func BadFunc2() {
	p := &pool{}
	_, ok := p.Acquire(0) // want "соединение из Acquire присвоено пустому идентификатору"
	_ = ok
}

func GoodFunc() {
	p := &pool{}
	c, ok := p.Acquire(0)
	_ = c
	_ = ok
}
`

	err = os.WriteFile(filepath.Join(pkgDir, "bad.go"), []byte(badGoCode), 0644)
	if err != nil {
		t.Fatal(err)
	}

	analysistest.Run(t, testdata, Analyzer, "a")
}
