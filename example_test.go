package entigo_test

import (
	"bytes"
	"fmt"
	"log"

	"github.com/hupe1980/entigo"
	"github.com/hupe1980/entigo/entity"
)

// Example demonstrates the ingest-then-build lifecycle.
func Example() {
	schema, err := entity.NewSchema(
		entity.IDAttribute,
		entity.Attribute{Name: "score", Type: entity.TypeFloat},
		entity.Attribute{Name: "label", Type: entity.TypeString},
	)
	if err != nil {
		log.Fatal(err)
	}

	b, err := entigo.NewBuilder("rating", schema, entigo.WithIndexes("label"))
	if err != nil {
		log.Fatal(err)
	}

	if err := b.Add(entity.New(1).Set("score", entity.Float(4.2)).Set("label", entity.String("good"))); err != nil {
		log.Fatal(err)
	}
	if err := b.Add(entity.New(2).Set("label", entity.String("bad"))); err != nil {
		log.Fatal(err)
	}

	col, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	matches, err := col.FindEntities("label", entity.String("good"))
	if err != nil {
		log.Fatal(err)
	}
	for _, e := range matches {
		score, _ := e.Get("score")
		f, _ := score.AsFloat64()
		fmt.Printf("entity %d score %.1f\n", e.ID(), f)
	}
	// Output: entity 1 score 4.2
}

// Example_saveLoad demonstrates snapshot persistence.
func Example_saveLoad() {
	schema := entity.MustSchema(
		entity.IDAttribute,
		entity.Attribute{Name: "label", Type: entity.TypeString},
	)

	b, err := entigo.NewBuilder("item", schema)
	if err != nil {
		log.Fatal(err)
	}
	if err := b.Add(entity.New(10).Set("label", entity.String("widget"))); err != nil {
		log.Fatal(err)
	}

	col, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	var buf bytes.Buffer
	if _, err := entigo.Save(&buf, col); err != nil {
		log.Fatal(err)
	}

	loaded, err := entigo.Load(&buf)
	if err != nil {
		log.Fatal(err)
	}
	for e := range loaded.Entities() {
		label, _ := e.Get("label")
		s, _ := label.AsString()
		fmt.Printf("%d: %s\n", e.ID(), s)
	}
	// Output: 10: widget
}
