package stats

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/mlefevre/skypulse/app/database"
)

//go:embed stopwords.yml
var stopwordsFS embed.FS

type stopwordFile struct {
	English        []string `yaml:"english"`
	SentimentExtra []string `yaml:"sentiment_extra"`
}

// DateAggregate is one row of the per-date rollup.
type DateAggregate struct {
	Date          string  `json:"date"`
	PostCount     int     `json:"post_count"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// SentimentBucket counts one sentiment within one time bucket. Bucket is a
// date string, or an hour-of-day string when the data spans a single date.
type SentimentBucket struct {
	Bucket    string `json:"bucket"`
	Sentiment string `json:"sentiment"`
	Count     int    `json:"count"`
}

// WordCount is one ranked word.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// LengthPoint relates a post's word count to its net sentiment, a score
// scaled into [-1, 1] where positive confidence pulls up and negative pulls
// down.
type LengthPoint struct {
	TextLength   int     `json:"text_length"`
	NetSentiment float64 `json:"net_sentiment"`
}

// Processor computes summary statistics over stored posts.
type Processor struct {
	posts          []database.Post
	stopwords      map[string]struct{}
	sentimentExtra map[string]struct{}
}

func NewProcessor(posts []database.Post) (*Processor, error) {
	data, err := stopwordsFS.ReadFile("stopwords.yml")
	if err != nil {
		return nil, fmt.Errorf("failed to read stopwords file: %w", err)
	}

	var file stopwordFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse stopwords file: %w", err)
	}

	p := &Processor{
		posts:          posts,
		stopwords:      make(map[string]struct{}, len(file.English)),
		sentimentExtra: make(map[string]struct{}, len(file.English)+len(file.SentimentExtra)),
	}
	for _, w := range file.English {
		p.stopwords[w] = struct{}{}
		p.sentimentExtra[w] = struct{}{}
	}
	for _, w := range file.SentimentExtra {
		p.sentimentExtra[w] = struct{}{}
	}

	return p, nil
}

// SentimentDistribution counts posts per sentiment label.
func (p *Processor) SentimentDistribution() map[string]int {
	distribution := make(map[string]int)
	for _, post := range p.posts {
		distribution[post.Sentiment]++
	}
	return distribution
}

// AggregateByDate returns post count and average confidence per calendar
// date, sorted ascending. Posts without a timestamp are excluded.
func (p *Processor) AggregateByDate() []DateAggregate {
	type acc struct {
		count int
		sum   float64
	}
	byDate := make(map[string]*acc)

	for _, post := range p.posts {
		if post.CreatedAt == nil {
			continue
		}
		date := post.CreatedAt.Format("2006-01-02")
		entry := byDate[date]
		if entry == nil {
			entry = &acc{}
			byDate[date] = entry
		}
		entry.count++
		entry.sum += post.Confidence
	}

	aggregates := make([]DateAggregate, 0, len(byDate))
	for date, entry := range byDate {
		aggregates = append(aggregates, DateAggregate{
			Date:          date,
			PostCount:     entry.count,
			AvgConfidence: entry.sum / float64(entry.count),
		})
	}
	sort.Slice(aggregates, func(i, j int) bool { return aggregates[i].Date < aggregates[j].Date })

	return aggregates
}

// SentimentOverTime counts each sentiment per date. When every timestamped
// post falls on the same date it buckets by hour of day instead, so a
// single-day data set still yields a usable series. The second return value
// reports which bucketing was used.
func (p *Processor) SentimentOverTime() ([]SentimentBucket, bool) {
	dates := make(map[string]struct{})
	for _, post := range p.posts {
		if post.CreatedAt != nil {
			dates[post.CreatedAt.Format("2006-01-02")] = struct{}{}
		}
	}

	byHour := len(dates) == 1
	counts := make(map[string]map[string]int)

	for _, post := range p.posts {
		if post.CreatedAt == nil {
			continue
		}
		var bucket string
		if byHour {
			bucket = fmt.Sprintf("%02d", post.CreatedAt.Hour())
		} else {
			bucket = post.CreatedAt.Format("2006-01-02")
		}
		if counts[bucket] == nil {
			counts[bucket] = make(map[string]int)
		}
		counts[bucket][post.Sentiment]++
	}

	var buckets []SentimentBucket
	for bucket, sentiments := range counts {
		for sentiment, count := range sentiments {
			buckets = append(buckets, SentimentBucket{Bucket: bucket, Sentiment: sentiment, Count: count})
		}
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Bucket != buckets[j].Bucket {
			return buckets[i].Bucket < buckets[j].Bucket
		}
		return buckets[i].Sentiment < buckets[j].Sentiment
	})

	return buckets, byHour
}

// WordFrequency counts alphabetic words across all post text, dropping
// stopwords and words shorter than minWordLength. With filterRare set,
// words seen only once are dropped.
func (p *Processor) WordFrequency(minWordLength int, filterRare bool) map[string]int {
	frequency := make(map[string]int)

	for _, post := range p.posts {
		for _, token := range strings.Fields(strings.ToLower(post.Text)) {
			token = strings.Trim(token, "!?.,'")
			if len(token) < minWordLength || !isAlpha(token) {
				continue
			}
			if _, ok := p.stopwords[token]; ok {
				continue
			}
			frequency[token]++
		}
	}

	if filterRare {
		for word, count := range frequency {
			if count == 1 {
				delete(frequency, word)
			}
		}
	}

	return frequency
}

// TopWordsBySentiment ranks the most frequent words within POSITIVE and
// NEGATIVE posts, with an extended stopword set to keep filler words out of
// the rankings.
func (p *Processor) TopWordsBySentiment(topN, minWordLength int) map[string][]WordCount {
	result := make(map[string][]WordCount, 2)

	for _, sentiment := range []string{database.SentimentPositive, database.SentimentNegative} {
		frequency := make(map[string]int)

		for _, post := range p.posts {
			if post.Sentiment != sentiment {
				continue
			}
			for _, token := range strings.Fields(strings.ToLower(post.Text)) {
				token = strings.Trim(token, "!?.,'")
				if len(token) < minWordLength || !isAlpha(token) {
					continue
				}
				if _, ok := p.sentimentExtra[token]; ok {
					continue
				}
				frequency[token]++
			}
		}

		words := make([]WordCount, 0, len(frequency))
		for word, count := range frequency {
			words = append(words, WordCount{Word: word, Count: count})
		}
		sort.Slice(words, func(i, j int) bool {
			if words[i].Count != words[j].Count {
				return words[i].Count > words[j].Count
			}
			return words[i].Word < words[j].Word
		})
		if len(words) > topN {
			words = words[:topN]
		}
		result[sentiment] = words
	}

	return result
}

// TextLengthSentiment relates word count to net sentiment for posts with at
// least three words and a known sentiment, sorted by length.
func (p *Processor) TextLengthSentiment() []LengthPoint {
	var points []LengthPoint

	for _, post := range p.posts {
		wordCount := len(strings.Fields(post.Text))
		if wordCount < 3 {
			continue
		}

		var net float64
		switch post.Sentiment {
		case database.SentimentPositive:
			net = 2 * (post.Confidence - 0.5)
		case database.SentimentNegative:
			net = -2 * (post.Confidence - 0.5)
		default:
			continue
		}

		points = append(points, LengthPoint{TextLength: wordCount, NetSentiment: net})
	}

	sort.Slice(points, func(i, j int) bool { return points[i].TextLength < points[j].TextLength })

	return points
}

// FilterByKeywords returns posts whose text contains any of the keywords,
// case-insensitively.
func FilterByKeywords(posts []database.Post, keywords []string) []database.Post {
	var filtered []database.Post
	for _, post := range posts {
		text := strings.ToLower(post.Text)
		for _, keyword := range keywords {
			if strings.Contains(text, strings.ToLower(keyword)) {
				filtered = append(filtered, post)
				break
			}
		}
	}
	return filtered
}

// FilterBySentiment returns posts matching the sentiment label.
func FilterBySentiment(posts []database.Post, sentiment string) []database.Post {
	want := strings.ToUpper(sentiment)
	var filtered []database.Post
	for _, post := range posts {
		if post.Sentiment == want {
			filtered = append(filtered, post)
		}
	}
	return filtered
}

// Heatmap counts posts by weekday and hour of day. Every weekday appears in
// the result; hours appear only when at least one post fell in them on some
// day, zero-filled across the other days.
func (p *Processor) Heatmap() map[string]map[int]int {
	observedHours := make(map[int]struct{})
	counts := make(map[string]map[int]int)

	for _, post := range p.posts {
		if post.CreatedAt == nil {
			continue
		}
		day := post.CreatedAt.Weekday().String()
		hour := post.CreatedAt.Hour()
		if counts[day] == nil {
			counts[day] = make(map[int]int)
		}
		counts[day][hour]++
		observedHours[hour] = struct{}{}
	}

	days := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	heatmap := make(map[string]map[int]int, len(days))
	for _, day := range days {
		heatmap[day] = make(map[int]int, len(observedHours))
		for hour := range observedHours {
			heatmap[day][hour] = counts[day][hour]
		}
	}

	return heatmap
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
