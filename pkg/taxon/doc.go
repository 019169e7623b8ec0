// Package taxon retrieves candidate taxonomy entries for hotel guest
// feedback and curates that taxonomy.
//
// A feedback fragment is expanded with hospitality vocabulary, embedded,
// and compared against every active keyword and problem. The result is a
// small ranked candidate set for a downstream classifier:
//
//	t, err := taxon.New(
//	    taxon.WithStorePath("data/taxonomy"),
//	    taxon.WithOpenAI(os.Getenv("OPENAI_API_KEY"), "text-embedding-3-small", 1536),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer t.Close()
//
//	c, _ := t.Retrieve(ctx, "o café da manhã estava frio")
//	for _, k := range c.KeywordCandidates {
//	    fmt.Println(k.Label, k.SimilarityScore)
//	}
//
// New keywords and problems are admitted only when no active entry
// already covers them; see CreateKeyword and FindDuplicates.
//
// A Taxon is safe for concurrent use. Create once, reuse across requests.
package taxon
