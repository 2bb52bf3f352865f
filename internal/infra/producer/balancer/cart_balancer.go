package balancer

import (
	"hash/fnv"

	"github.com/segmentio/kafka-go"
)

type IBaseBalancer interface {
	Balance(msg kafka.Message, partitions ...int) (partition int)
}

// CartBalancer 購物車事件以 cartID 做 key，同一購物車的事件落在同一分區
type CartBalancer struct {
	numPartitions int
}

func NewCartBalancer(numPartitions int) IBaseBalancer {
	return &CartBalancer{numPartitions: numPartitions}
}

func (c *CartBalancer) Balance(msg kafka.Message, partitions ...int) (partition int) {
	if len(msg.Key) == 0 {
		if len(partitions) != 0 {
			return partitions[0]
		}
		return 0
	}

	hash := fnv.New32a()
	hash.Write(msg.Key)
	sum := hash.Sum32()

	if len(partitions) != 0 {
		return partitions[sum%uint32(len(partitions))]
	}
	if c.numPartitions <= 0 {
		return 0
	}
	return int(sum % uint32(c.numPartitions))
}
