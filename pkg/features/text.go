package features

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spf13/afero"
)

const textSampleSize = 1000

// TextProvider 文本特征：行数、词数、平均词长，以及出现最多的 5 个字母的频次
// 只读取文件开头的 1000 字节
type TextProvider struct{}

func (TextProvider) Features(fs afero.Fs, path string) ([]float64, error) {
	head, err := readHead(fs, path, textSampleSize)
	if err != nil {
		return nil, err
	}
	content := strings.ToValidUTF8(string(head), "")

	lines := strings.Count(content, "\n")
	words := strings.Fields(content)

	var avg float64
	if len(words) > 0 {
		total := 0
		for _, w := range words {
			total += utf8.RuneCountInString(w)
		}
		avg = float64(total) / float64(len(words))
	}

	freq := make(map[rune]int)
	for _, c := range strings.ToLower(content) {
		if unicode.IsLetter(c) {
			freq[c]++
		}
	}
	counts := make([]int, 0, len(freq))
	for _, n := range freq {
		counts = append(counts, n)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(counts)))

	out := []float64{float64(lines), float64(len(words)), avg}
	for i := 0; i < 5; i++ {
		if i < len(counts) {
			out = append(out, float64(counts[i]))
		} else {
			out = append(out, 0)
		}
	}
	return append(out, 0, 0), nil
}
