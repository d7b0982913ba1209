//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"strings"
	"syscall/js"

	"docrag/internal/adapter/cache"
	"docrag/internal/adapter/chunker"
	"docrag/internal/adapter/embedding"
	"docrag/internal/adapter/memstore"
	"docrag/internal/adapter/retriever"
	"docrag/internal/usecase"
)

var (
	engine     *usecase.Engine
	retrieveUC *usecase.RetrieveUseCase
)

func init() {
	reset()
}

func reset() {
	store := memstore.NewMemoryStore()
	embedder := embedding.NewHashEmbedder(embedding.DefaultDimension)
	cached := cache.NewCachedRetriever(
		retriever.NewSemanticRetriever(store, embedder),
		cache.NewQueryCache(0, 0),
	)
	engine = usecase.NewEngine(
		store,
		chunker.NewSentenceChunker(chunker.DefaultTargetWords, chunker.DefaultOverlapHint),
		embedder,
		cached,
		1,
	)
	retrieveUC = usecase.NewRetrieveUseCase(engine, 0.05, usecase.DefaultPreviewChars)
}

func main() {
	c := make(chan struct{})

	js.Global().Set("docragTrain", js.FuncOf(trainCollection))
	js.Global().Set("docragQuery", js.FuncOf(queryCollection))
	js.Global().Set("docragContext", js.FuncOf(contextForQuery))
	js.Global().Set("docragStatus", js.FuncOf(collectionStatus))
	js.Global().Set("docragDrop", js.FuncOf(dropCollection))
	js.Global().Set("docragExport", js.FuncOf(exportCollection))
	js.Global().Set("docragImport", js.FuncOf(importCollection))
	js.Global().Set("docragClear", js.FuncOf(clearAll))

	<-c
}

func trainCollection(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("usage: docragTrain(collection, text)")
	}

	res, err := engine.Train(context.Background(), args[0].String(), args[1].String())
	if err != nil {
		return makeError("training failed: " + err.Error())
	}

	return makeResult(map[string]interface{}{
		"success":        true,
		"documentsCount": res.DocumentsCount,
		"chunkCount":     res.ChunkCount,
		"skippedChunks":  res.SkippedChunks,
		"avgChunkLength": res.AvgChunkLength,
	})
}

func queryCollection(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("usage: docragQuery(collection, query, [topK])")
	}

	topK := retriever.DefaultTopK
	if len(args) > 2 {
		topK = args[2].Int()
	}

	results, err := engine.Search(context.Background(), args[0].String(), args[1].String(), topK)
	if err != nil {
		return makeError("search failed: " + err.Error())
	}

	output := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		output = append(output, map[string]interface{}{
			"sequenceId": r.SequenceID,
			"score":      r.Score,
			"text":       r.Text,
		})
	}

	return makeResult(map[string]interface{}{
		"results": output,
		"query":   args[1].String(),
	})
}

func contextForQuery(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("usage: docragContext(collection, query)")
	}

	rc, err := retrieveUC.Context(context.Background(), args[0].String(), args[1].String(), retriever.DefaultTopK)
	if err != nil {
		return makeError("search failed: " + err.Error())
	}

	return makeResult(map[string]interface{}{
		"context": rc.Context,
		"sources": rc.Sources,
	})
}

func collectionStatus(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeResult(map[string]interface{}{
			"collections": engine.Collections(),
		})
	}

	status := engine.Status(args[0].String())
	return makeResult(map[string]interface{}{
		"exists":        status.Exists,
		"documentCount": status.DocumentCount,
	})
}

func dropCollection(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: docragDrop(collection)")
	}

	return makeResult(map[string]interface{}{
		"dropped": engine.Drop(args[0].String()),
	})
}

func exportCollection(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: docragExport(collection)")
	}

	var sb strings.Builder
	if err := engine.Save(args[0].String(), &sb); err != nil {
		return makeError("export failed: " + err.Error())
	}
	return sb.String()
}

func importCollection(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("usage: docragImport(collection, snapshot)")
	}

	if err := engine.Load(args[0].String(), strings.NewReader(args[1].String())); err != nil {
		return makeError("import failed: " + err.Error())
	}

	status := engine.Status(args[0].String())
	return makeResult(map[string]interface{}{
		"success":       true,
		"documentCount": status.DocumentCount,
	})
}

func clearAll(this js.Value, args []js.Value) interface{} {
	reset()
	return makeResult(map[string]interface{}{
		"success": true,
	})
}

func makeError(msg string) interface{} {
	result, _ := json.Marshal(map[string]interface{}{
		"error": msg,
	})
	return string(result)
}

func makeResult(data map[string]interface{}) interface{} {
	result, _ := json.Marshal(data)
	return string(result)
}
