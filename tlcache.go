// Package tlcache provides a persistent cache in front of a machine translation backend.
//
// A Translator looks up a translation by item type and item id in a cache.Store,
// calls the TranslationBackend only on a miss, remembers the result and returns it
// through the content trust gate, which marks HTML and BBCode results as markup
// that is safe to render.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//	    "os"
//
//	    "github.com/ZaguanLabs/tlcache"
//	    "github.com/ZaguanLabs/tlcache/cache"
//	    "github.com/ZaguanLabs/tlcache/provider"
//	    "github.com/ZaguanLabs/tlcache/storage"
//	)
//
//	func main() {
//	    // Create backend
//	    b := provider.NewOpenAIBackend(provider.OpenAIConfig{
//	        APIKey: os.Getenv("OPENAI_API_KEY"),
//	    })
//
//	    // Create translator with a 5 MB in-memory store
//	    t := tlcache.NewTranslator(b,
//	        tlcache.WithCache(cache.New(storage.NewMemory(5<<20))),
//	    )
//
//	    // Translate a comment; repeated calls are served from the cache
//	    out, err := t.Translate(context.Background(), tlcache.Request{
//	        Text:       "<p>Hello World</p>",
//	        TargetLang: "es",
//	        Format:     tlcache.FormatHTML,
//	        ItemType:   "comment",
//	        ItemID:     "42",
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(out.HTML()) // <p>Hola Mundo</p>
//	}
package tlcache
