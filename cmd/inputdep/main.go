package main

import (
	"github.com/tum-i4/input-dependency-analyzer-sub000/pkg/inputdep"
	"golang.org/x/tools/go/analysis/singlechecker"
)

func main() {
	singlechecker.Main(inputdep.Analyzer)
}
