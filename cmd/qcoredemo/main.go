package main

import (
	"fmt"
	"log"

	"github.com/kittclouds/qcore/pkg/attribute"
	"github.com/kittclouds/qcore/pkg/filter"
	"github.com/kittclouds/qcore/pkg/scorer"
	"github.com/kittclouds/qcore/pkg/seg"
	"github.com/spf13/cobra"
)

var scorerName string

func main() {
	root := &cobra.Command{
		Use:   "qcoredemo",
		Short: "Run filters over an in-memory three-document example index",
	}
	root.PersistentFlags().StringVar(&scorerName, "scorer", "bm25", "scorer to rank with: bm25, tfidf, boost_sort, none")
	root.AddCommand(newTermCmd(), newPhraseCmd(), newSamePositionCmd())

	if err := root.Execute(); err != nil {
		log.Fatalf("qcoredemo: %v", err)
	}
}

func buildExampleIndex() seg.IndexReader {
	b := seg.NewMemSegmentBuilder()
	d1 := b.NewDoc()
	b.IndexField(d1, "body", []string{"quick", "brown", "fox"})
	d2 := b.NewDoc()
	b.IndexField(d2, "body", []string{"the", "quick", "fox"})
	d3 := b.NewDoc()
	b.IndexField(d3, "body", []string{"brown", "quick", "fox"})
	return seg.NewMemIndex(b.Build())
}

func buildOrder() (scorer.Order, error) {
	argsFormat, args := "json", "{}"
	switch scorerName {
	case "none":
		return scorer.Prepare(), nil
	case "boost_sort":
		argsFormat, args = "none", ""
	}
	s, err := scorer.Get(scorerName, argsFormat, args)
	if err != nil {
		return scorer.Order{}, fmt.Errorf("unknown scorer %q: %w", scorerName, err)
	}
	return scorer.Prepare(s), nil
}

func runFilter(name string, f filter.Filter) {
	order, err := buildOrder()
	if err != nil {
		log.Fatalf("%v", err)
	}
	index := buildExampleIndex()

	prepared, err := f.Prepare(index, order, seg.NoBoost, nil)
	if err != nil {
		log.Fatalf("prepare %s: %v", name, err)
	}

	fmt.Printf("%s (scorer=%s)\n", name, scorerName)
	numScorers := order.Len()
	for i := 0; i < index.Size(); i++ {
		segment := index.Segment(i)
		it := prepared.Execute(segment)
		for it.Next() {
			doc := it.Value()
			if numScorers == 0 {
				fmt.Printf("  doc %d\n", doc)
				continue
			}
			raw, ok := it.Attributes().Get(attribute.KindScore)
			if !ok {
				fmt.Printf("  doc %d\n", doc)
				continue
			}
			dst := make([]float32, numScorers)
			raw.(attribute.Score)(dst)
			fmt.Printf("  doc %d score=%v\n", doc, dst)
		}
	}
}

func newTermCmd() *cobra.Command {
	var field, text string
	cmd := &cobra.Command{
		Use:   "term",
		Short: "Run a single-term filter",
		Run: func(*cobra.Command, []string) {
			runFilter("term", filter.NewTerm(field, text))
		},
	}
	cmd.Flags().StringVar(&field, "field", "body", "field to search")
	cmd.Flags().StringVar(&text, "text", "quick", "literal term to match")
	return cmd
}

func newPhraseCmd() *cobra.Command {
	var field, first, second string
	cmd := &cobra.Command{
		Use:   "phrase",
		Short: "Run a fixed two-slot phrase filter",
		Run: func(*cobra.Command, []string) {
			f := filter.NewPhrase(field,
				filter.PhraseSlotSpec{Offset: 0, Options: filter.PhraseSlotOptions{Kind: filter.SlotTerm, Text: first}},
				filter.PhraseSlotSpec{Offset: 1, Options: filter.PhraseSlotOptions{Kind: filter.SlotTerm, Text: second}},
			)
			runFilter("phrase", f)
		},
	}
	cmd.Flags().StringVar(&field, "field", "body", "field to search")
	cmd.Flags().StringVar(&first, "first", "quick", "first phrase slot literal")
	cmd.Flags().StringVar(&second, "second", "fox", "second phrase slot literal, one position after first")
	return cmd
}

func newSamePositionCmd() *cobra.Command {
	var field, text string
	cmd := &cobra.Command{
		Use:   "same-position",
		Short: "Run a single-term same-position filter",
		Run: func(*cobra.Command, []string) {
			f := filter.NewSamePosition(filter.SamePositionTerm{Field: field, Text: text})
			runFilter("same-position", f)
		},
	}
	cmd.Flags().StringVar(&field, "field", "body", "field to search")
	cmd.Flags().StringVar(&text, "text", "quick", "literal term every listed field must carry at the shared position")
	return cmd
}
