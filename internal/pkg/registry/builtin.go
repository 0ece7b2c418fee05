// Copyright 2020 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package registry

// builtinFuncSignatures covers functions that could be called statically,
// keyed by fully qualified name.
var builtinFuncSignatures = map[string]Signature{
	// func Errorf(format string, a ...interface{}) error
	"fmt.Errorf": {IfDep: 0b11, DepRets: []int{0}},
	// func Sprint(a ...interface{}) string
	"fmt.Sprint": fromFirstArgToFirstRet,
	// func Sprintf(format string, a ...interface{}) string
	"fmt.Sprintf": {IfDep: 0b11, DepRets: []int{0}},
	// func Sprintln(a ...interface{}) string
	"fmt.Sprintln": fromFirstArgToFirstRet,
	// func Fprint(w io.Writer, a ...interface{}) (n int, err error)
	"fmt.Fprint": {IfDep: 0b10, DepArgs: []int{0}},
	// func Fprintf(w io.Writer, format string, a ...interface{}) (n int, err error)
	"fmt.Fprintf": {IfDep: 0b110, DepArgs: []int{0}},
	// func Fprintln(w io.Writer, a ...interface{}) (n int, err error)
	"fmt.Fprintln": {IfDep: 0b10, DepArgs: []int{0}},
	// func Sscan(str string, a ...interface{}) (n int, err error)
	"fmt.Sscan": {IfDep: 0b1, DepArgs: []int{1}},
	// func Sscanln(str string, a ...interface{}) (n int, err error)
	"fmt.Sscanln": {IfDep: 0b1, DepArgs: []int{1}},
	// func Sscanf(str, format string, a ...interface{}) (n int, err error)
	"fmt.Sscanf": {IfDep: 0b1, DepArgs: []int{2}},

	// func New(text string) error
	"errors.New": fromFirstArgToFirstRet,
	// func Unwrap(err error) error
	"errors.Unwrap": fromFirstArgToFirstRet,
	// func As(err error, target interface{}) bool
	"errors.As": {IfDep: 0b1, DepArgs: []int{1}},
	// func Is(err, target error) bool
	"errors.Is": {},

	// func Contains(s, substr string) bool
	"strings.Contains": {},
	// func Count(s, substr string) int
	"strings.Count": {},
	// func Index(s, substr string) int
	"strings.Index": {},
	// func SplitN(s, sep string, n int) []string
	"strings.SplitN": fromFirstArgToFirstRet,
	// func Split(s, sep string) []string
	"strings.Split": fromFirstArgToFirstRet,
	// func SplitAfter(s, sep string) []string
	"strings.SplitAfter": fromFirstArgToFirstRet,
	// func Fields(s string) []string
	"strings.Fields": fromFirstArgToFirstRet,
	// func FieldsFunc(s string, f func(rune) bool) []string
	"strings.FieldsFunc": fromFirstArgToFirstRet,
	// func Join(elems []string, sep string) string
	"strings.Join": {IfDep: 0b11, DepRets: []int{0}},
	// func Map(mapping func(rune) rune, s string) string
	"strings.Map": {IfDep: 0b10, DepRets: []int{0}},
	// func Repeat(s string, count int) string
	"strings.Repeat": fromFirstArgToFirstRet,
	// func ToUpper(s string) string
	"strings.ToUpper": fromFirstArgToFirstRet,
	// func ToLower(s string) string
	"strings.ToLower": fromFirstArgToFirstRet,
	// func Title(s string) string
	"strings.Title": fromFirstArgToFirstRet,
	// func TrimSpace(s string) string
	"strings.TrimSpace": fromFirstArgToFirstRet,
	// func TrimPrefix(s, prefix string) string
	"strings.TrimPrefix": fromFirstArgToFirstRet,
	// func TrimSuffix(s, suffix string) string
	"strings.TrimSuffix": fromFirstArgToFirstRet,
	// func Replace(s, old, new string, n int) string
	"strings.Replace": {IfDep: 0b101, DepRets: []int{0}},
	// func ReplaceAll(s, old, new string) string
	"strings.ReplaceAll": {IfDep: 0b101, DepRets: []int{0}},
	// func NewReader(s string) *Reader
	"strings.NewReader": fromFirstArgToFirstRet,
	// func (r *Replacer) Replace(s string) string
	"(*strings.Replacer).Replace": {IfDep: 0b11, DepRets: []int{0}},
	// func NewReplacer(oldnew ...string) *Replacer
	"strings.NewReplacer": fromFirstArgToFirstRet,

	// func (b *Buffer) Next(n int) []byte
	"(*bytes.Buffer).Next": fromFirstArgToFirstRet,
	// func (b *Buffer) ReadBytes(delim byte) (line []byte, err error)
	"(*bytes.Buffer).ReadBytes": fromFirstArgToFirstRet,
	// func (b *Buffer) ReadString(delim byte) (line string, err error)
	"(*bytes.Buffer).ReadString": fromFirstArgToFirstRet,
	// func NewBuffer(buf []byte) *Buffer
	"bytes.NewBuffer": fromFirstArgToFirstRet,
	// func NewBufferString(s string) *Buffer
	"bytes.NewBufferString": fromFirstArgToFirstRet,
	// func Split(s, sep []byte) [][]byte
	"bytes.Split": fromFirstArgToFirstRet,
	// func Join(s [][]byte, sep []byte) []byte
	"bytes.Join": {IfDep: 0b11, DepRets: []int{0}},
	// func Repeat(b []byte, count int) []byte
	"bytes.Repeat": fromFirstArgToFirstRet,
	// func ToUpper(s []byte) []byte
	"bytes.ToUpper": fromFirstArgToFirstRet,
	// func ToLower(s []byte) []byte
	"bytes.ToLower": fromFirstArgToFirstRet,
	// func TrimSpace(s []byte) []byte
	"bytes.TrimSpace": fromFirstArgToFirstRet,
	// func Replace(s, old, new []byte, n int) []byte
	"bytes.Replace": {IfDep: 0b101, DepRets: []int{0}},
	// func ReplaceAll(s, old, new []byte) []byte
	"bytes.ReplaceAll": {IfDep: 0b101, DepRets: []int{0}},
	// func NewReader(b []byte) *Reader
	"bytes.NewReader": fromFirstArgToFirstRet,

	// func WriteString(w Writer, s string) (n int, err error)
	"io.WriteString": {IfDep: 0b10, DepArgs: []int{0}},
	// func ReadAtLeast(r Reader, buf []byte, min int) (n int, err error)
	"io.ReadAtLeast": {IfDep: 0b1, DepArgs: []int{1}},
	// func ReadFull(r Reader, buf []byte) (n int, err error)
	"io.ReadFull": {IfDep: 0b1, DepArgs: []int{1}},
	// func Copy(dst Writer, src Reader) (written int64, err error)
	"io.Copy": {IfDep: 0b10, DepArgs: []int{0}},
	// func CopyBuffer(dst Writer, src Reader, buf []byte) (written int64, err error)
	"io.CopyBuffer": {IfDep: 0b10, DepArgs: []int{0, 2}},
	// func LimitReader(r Reader, n int64) Reader
	"io.LimitReader": fromFirstArgToFirstRet,
	// func TeeReader(r Reader, w Writer) Reader
	"io.TeeReader": {IfDep: 0b11, DepRets: []int{0}},
	// func MultiReader(readers ...Reader) Reader
	"io.MultiReader": fromFirstArgToFirstRet,
	// func MultiWriter(writers ...Writer) Writer
	"io.MultiWriter": fromFirstArgToFirstRet,
	// func ReadAll(r io.Reader) ([]byte, error)
	"io.ReadAll":        fromFirstArgToFirstRet,
	"io/ioutil.ReadAll": fromFirstArgToFirstRet,
	// func NopCloser(r io.Reader) io.ReadCloser
	"io.NopCloser":        fromFirstArgToFirstRet,
	"io/ioutil.NopCloser": fromFirstArgToFirstRet,

	// func NewReader(rd io.Reader) *Reader
	"bufio.NewReader": fromFirstArgToFirstRet,
	// func (b *Reader) Peek(n int) ([]byte, error)
	"(*bufio.Reader).Peek": fromFirstArgToFirstRet,
	// func (b *Reader) ReadBytes(delim byte) ([]byte, error)
	"(*bufio.Reader).ReadBytes": fromFirstArgToFirstRet,
	// func (b *Reader) ReadString(delim byte) (string, error)
	"(*bufio.Reader).ReadString": fromFirstArgToFirstRet,
	// func NewWriter(w io.Writer) *Writer
	"bufio.NewWriter": fromFirstArgToFirstRet,
	// func NewScanner(r io.Reader) *Scanner
	"bufio.NewScanner": fromFirstArgToFirstRet,
	// func (s *Scanner) Bytes() []byte
	"(*bufio.Scanner).Bytes": fromFirstArgToFirstRet,
	// func (s *Scanner) Text() string
	"(*bufio.Scanner).Text": fromFirstArgToFirstRet,

	// func Marshal(v interface{}) ([]byte, error)
	"encoding/json.Marshal": fromFirstArgToFirstRet,
	// func Unmarshal(data []byte, v interface{}) error
	"encoding/json.Unmarshal": {IfDep: 0b1, DepArgs: []int{1}},
	// func (dec *Decoder) Decode(v interface{}) error
	"(*encoding/json.Decoder).Decode": {IfDep: 0b1, DepArgs: []int{1}},
	// func (enc *Encoder) Encode(v interface{}) error
	"(*encoding/json.Encoder).Encode": {IfDep: 0b10, DepArgs: []int{0}},
	// func (m *RawMessage) UnmarshalJSON(data []byte) error
	"(*encoding/json.RawMessage).UnmarshalJSON": {IfDep: 0b10, DepArgs: []int{0}},

	// func (enc *Encoding) EncodeToString(src []byte) string
	"(*encoding/base64.Encoding).EncodeToString": {IfDep: 0b10, DepRets: []int{0}},
	// func (enc *Encoding) DecodeString(s string) ([]byte, error)
	"(*encoding/base64.Encoding).DecodeString": {IfDep: 0b10, DepRets: []int{0}},

	// func (m *Map) Load(key interface{}) (value interface{}, ok bool)
	"(*sync.Map).Load": {IfDep: 0b10, DepRets: []int{0}},
	// func (m *Map) Store(key, value interface{})
	"(*sync.Map).Store": {},
	// func (m *Map) LoadOrStore(key, value interface{}) (actual interface{}, loaded bool)
	"(*sync.Map).LoadOrStore": {IfDep: 0b110, DepRets: []int{0}},

	// func Sprint/Println-like formatting in strconv
	// func Itoa(i int) string
	"strconv.Itoa": fromFirstArgToFirstRet,
	// func Atoi(s string) (int, error)
	"strconv.Atoi": fromFirstArgToFirstRet,
	// func FormatInt(i int64, base int) string
	"strconv.FormatInt": {IfDep: 0b1, DepRets: []int{0}},
	// func ParseInt(s string, base int, bitSize int) (int64, error)
	"strconv.ParseInt": {IfDep: 0b1, DepRets: []int{0}},
	// func Quote(s string) string
	"strconv.Quote": fromFirstArgToFirstRet,

	// func (t *Template) Execute(wr io.Writer, data interface{}) error
	"(*text/template.Template).Execute": {IfDep: 0b110, DepArgs: []int{1}},
	// func (t *Template) ExecuteTemplate(wr io.Writer, name string, data interface{}) error
	"(*text/template.Template).ExecuteTemplate": {IfDep: 0b1010, DepArgs: []int{1}},
	// func (t *Template) Execute(wr io.Writer, data interface{}) error
	"(*html/template.Template).Execute": {IfDep: 0b110, DepArgs: []int{1}},
	"(*html/template.Template).ExecuteTemplate": {IfDep: 0b1010, DepArgs: []int{1}},

	// func (l *Logger) Printf(format string, v ...interface{})
	"(*log.Logger).Printf": {},
	// func Printf(format string, v ...interface{})
	"log.Printf": {},

	// func Slice(x any, less func(i, j int) bool)
	"sort.Slice": {CallbackArgs: []int{1}},
	// func SliceStable(x any, less func(i, j int) bool)
	"sort.SliceStable": {CallbackArgs: []int{1}},
	// func Search(n int, f func(int) bool) int
	"sort.Search": {CallbackArgs: []int{1}},
}

// builtinInterfaceSignatures contains signatures for common interface
// methods such as Write or Read, that could be called statically (a call
// to a concrete method whose signature matches an interface method) or
// dynamically (a call to an interface method on an interface value).
var builtinInterfaceSignatures = map[funcKey]Signature{
	// type io.Reader interface { Read(p []byte) (n int, err error) }
	{"Read", "([]byte)(int,error)"}: {IfDep: 0b1, DepArgs: []int{1}},
	// type io.Writer interface { Write(p []byte) (n int, err error) }
	{"Write", "([]byte)(int,error)"}: {IfDep: 0b10, DepArgs: []int{0}},
	// type io.ReaderFrom interface { ReadFrom(r Reader) (n int64, err error) }
	{"ReadFrom", "(Reader)(int64,error)"}: {IfDep: 0b10, DepArgs: []int{0}},
	// type io.WriterTo interface { WriteTo(w Writer) (n int64, err error) }
	{"WriteTo", "(Writer)(int64,error)"}: {IfDep: 0b1, DepArgs: []int{1}},
	// type io.ReaderAt interface { ReadAt(p []byte, off int64) (n int, err error) }
	{"ReadAt", "([]byte,int64)(int,error)"}: {IfDep: 0b1, DepArgs: []int{1}},
	// type io.WriterAt interface { WriteAt(p []byte, off int64) (n int, err error) }
	{"WriteAt", "([]byte,int64)(int,error)"}: {IfDep: 0b10, DepArgs: []int{0}},
	// type io.StringWriter interface { WriteString(s string) (n int, err error) }
	{"WriteString", "(string)(int,error)"}: {IfDep: 0b10, DepArgs: []int{0}},
	// type fmt.Stringer interface { String() string }
	{"String", "()(string)"}: {IfDep: 0b1, DepRets: []int{0}},
	// type error interface { Error() string }
	{"Error", "()(string)"}: {IfDep: 0b1, DepRets: []int{0}},
	// Unwrap() error
	{"Unwrap", "()(error)"}: {IfDep: 0b1, DepRets: []int{0}},
	// Bytes() []byte
	{"Bytes", "()([]byte)"}: {IfDep: 0b1, DepRets: []int{0}},
	// type context.Context interface { Value(key interface{}) interface{} }
	{"Value", "(interface{})(interface{})"}: {IfDep: 0b1, DepRets: []int{0}},
	// Err() error
	{"Err", "()(error)"}: {IfDep: 0b1, DepRets: []int{0}},
}
